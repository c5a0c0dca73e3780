package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment. Empty
// DatabaseURL, RedisURL, or KafkaBrokers select the in-process fallbacks so
// the service runs with zero external infrastructure in development.
type Config struct {
	Addr         string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	AuditTopic   string
	CountriesURL string
	RatesURL     string
	FetchTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:         getenv("ATLAS_ADDR", ":8080"),
		DatabaseURL:  os.Getenv("ATLAS_DATABASE_URL"),
		RedisURL:     os.Getenv("ATLAS_REDIS_URL"),
		AuditTopic:   getenv("ATLAS_AUDIT_TOPIC", "countryatlas.audit"),
		CountriesURL: getenv("ATLAS_COUNTRIES_URL", "https://restcountries.com/v2"),
		RatesURL:     getenv("ATLAS_RATES_URL", "https://open.er-api.com/v6"),
		FetchTimeout: 30 * time.Second,
	}

	if brokers := os.Getenv("ATLAS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if raw := os.Getenv("ATLAS_FETCH_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.FetchTimeout = d
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
