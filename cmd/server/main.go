package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"countryatlas/internal/audit"
	"countryatlas/internal/country/fetch"
	"countryatlas/internal/country/handler"
	"countryatlas/internal/country/service"
	"countryatlas/internal/country/store"
	"countryatlas/internal/platform/config"
	"countryatlas/internal/platform/httpserver"
	"countryatlas/internal/platform/logger"
	"countryatlas/internal/platform/metrics"
	"countryatlas/internal/platform/postgres"
	"countryatlas/internal/platform/redis"
	"countryatlas/internal/summary"
	httptransport "countryatlas/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	var snapshots service.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		snapshots = pg
		log.Info("using postgres snapshot store")
	} else {
		log.Info("no database configured, using in-memory snapshot store")
	}

	var artifacts summary.ArtifactStore = summary.NewMemoryStore()
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		artifacts = summary.NewRedisStore(redisClient.Client)
		log.Info("using redis artifact store")
	}

	var auditor audit.Publisher = audit.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafka(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		auditor = kafka
		log.Info("audit events enabled", "topic", cfg.AuditTopic)
	}

	svc := service.New(service.Config{
		Store:     snapshots,
		Countries: fetch.NewCountriesClient(cfg.CountriesURL, cfg.FetchTimeout),
		Rates:     fetch.NewRatesClient(cfg.RatesURL, cfg.FetchTimeout),
		Artifacts: artifacts,
		Audit:     auditor,
		Metrics:   metrics.New(prometheus.DefaultRegisterer),
		Logger:    log,
	})

	router := httptransport.NewRouter(handler.New(svc, log), log)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting countryatlas", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
