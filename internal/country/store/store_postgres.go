package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"countryatlas/internal/country"
	"countryatlas/pkg/platform/sentinel"
)

// Postgres persists the country snapshot in PostgreSQL. Name uniqueness is
// enforced by a unique expression index on LOWER(name); upserts target that
// index so conflict detection is case-insensitive by construction.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed snapshot store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the schema if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS countries (
			name TEXT NOT NULL,
			capital TEXT,
			region TEXT,
			population BIGINT NOT NULL DEFAULT 0 CHECK (population >= 0),
			currency_code TEXT,
			exchange_rate NUMERIC,
			estimated_gdp NUMERIC,
			flag_url TEXT,
			last_refreshed_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS countries_name_lower_idx ON countries (LOWER(name))`,
		`CREATE TABLE IF NOT EXISTS refresh_metadata (
			id SMALLINT PRIMARY KEY CHECK (id = 1),
			total_countries BIGINT NOT NULL,
			last_refreshed_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const upsertCountry = `
	INSERT INTO countries
		(name, capital, region, population, currency_code, exchange_rate,
		 estimated_gdp, flag_url, last_refreshed_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	ON CONFLICT (LOWER(name)) DO UPDATE SET
		name = EXCLUDED.name,
		capital = EXCLUDED.capital,
		region = EXCLUDED.region,
		population = EXCLUDED.population,
		currency_code = EXCLUDED.currency_code,
		exchange_rate = EXCLUDED.exchange_rate,
		estimated_gdp = EXCLUDED.estimated_gdp,
		flag_url = EXCLUDED.flag_url,
		last_refreshed_at = EXCLUDED.last_refreshed_at`

// BulkUpsert writes the whole batch in one transaction; created_at survives
// updates, every other column is overwritten.
func (s *Postgres) BulkUpsert(ctx context.Context, records []country.CountryRecord) (int, error) {
	if err := validateBatch(records); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("bulk upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertCountry)
	if err != nil {
		return 0, fmt.Errorf("bulk upsert: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.Name,
			rec.Capital,
			rec.Region,
			rec.Population,
			rec.CurrencyCode,
			nullDecimal(rec.ExchangeRate),
			nullDecimal(rec.EstimatedGDP),
			rec.FlagURL,
			rec.LastRefreshedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("bulk upsert: %s: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("bulk upsert: commit: %w", err)
	}
	return len(records), nil
}

const selectColumns = `name, capital, region, population, currency_code,
	exchange_rate, estimated_gdp, flag_url, last_refreshed_at, created_at`

// FindAll returns records matching the filter in the requested order.
func (s *Postgres) FindAll(ctx context.Context, filter country.Filter, order country.SortOrder) ([]country.CountryRecord, error) {
	query := "SELECT " + selectColumns + " FROM countries"
	var (
		args  []any
		where []string
	)
	if filter.Region != nil {
		args = append(args, *filter.Region)
		where = append(where, fmt.Sprintf("LOWER(region) = LOWER($%d)", len(args)))
	}
	if filter.CurrencyCode != nil {
		args = append(args, *filter.CurrencyCode)
		where = append(where, fmt.Sprintf("UPPER(currency_code) = UPPER($%d)", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY " + orderClause(order)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}
	defer rows.Close()

	var out []country.CountryRecord
	for rows.Next() {
		rec, err := scanCountry(rows)
		if err != nil {
			return nil, fmt.Errorf("find all: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}
	return out, nil
}

// FindByName looks a record up case-insensitively.
func (s *Postgres) FindByName(ctx context.Context, name string) (country.CountryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM countries WHERE LOWER(name) = LOWER($1)", name)
	rec, err := scanCountry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return country.CountryRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return country.CountryRecord{}, fmt.Errorf("find by name: %w", err)
	}
	return rec, nil
}

// DeleteByName removes a record case-insensitively. A missing name is a
// false result, not an error.
func (s *Postgres) DeleteByName(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM countries WHERE LOWER(name) = LOWER($1)", name)
	if err != nil {
		return false, fmt.Errorf("delete by name: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete by name: %w", err)
	}
	return n > 0, nil
}

// Count returns the total number of stored records.
func (s *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM countries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Metadata returns the refresh metadata singleton; a zero value before the
// first refresh.
func (s *Postgres) Metadata(ctx context.Context) (country.RefreshMetadata, error) {
	var meta country.RefreshMetadata
	var at time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT total_countries, last_refreshed_at FROM refresh_metadata WHERE id = 1").
		Scan(&meta.TotalCountries, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return country.RefreshMetadata{}, nil
	}
	if err != nil {
		return country.RefreshMetadata{}, fmt.Errorf("metadata: %w", err)
	}
	meta.LastRefreshedAt = &at
	return meta, nil
}

// SetMetadata replaces the refresh metadata singleton.
func (s *Postgres) SetMetadata(ctx context.Context, total int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_metadata (id, total_countries, last_refreshed_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			total_countries = EXCLUDED.total_countries,
			last_refreshed_at = EXCLUDED.last_refreshed_at`, total, at)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}

// orderClause whitelists ORDER BY expressions per SortOrder; values never
// reach SQL text from user input. Null GDPs sort last with name ascending
// as the rest/tie order.
func orderClause(order country.SortOrder) string {
	switch order {
	case country.SortNameDesc:
		return "LOWER(name) DESC"
	case country.SortGDPAsc:
		return "estimated_gdp ASC NULLS LAST, LOWER(name) ASC"
	case country.SortGDPDesc:
		return "estimated_gdp DESC NULLS LAST, LOWER(name) ASC"
	case country.SortPopulationAsc:
		return "population ASC, LOWER(name) ASC"
	case country.SortPopulationDesc:
		return "population DESC, LOWER(name) ASC"
	default:
		return "LOWER(name) ASC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCountry(row rowScanner) (country.CountryRecord, error) {
	var (
		rec     country.CountryRecord
		capital sql.NullString
		region  sql.NullString
		code    sql.NullString
		flag    sql.NullString
		rate    decimal.NullDecimal
		gdp     decimal.NullDecimal
		refresh time.Time
		created time.Time
	)
	err := row.Scan(&rec.Name, &capital, &region, &rec.Population, &code,
		&rate, &gdp, &flag, &refresh, &created)
	if err != nil {
		return country.CountryRecord{}, err
	}
	rec.Capital = nullString(capital)
	rec.Region = nullString(region)
	rec.CurrencyCode = nullString(code)
	rec.FlagURL = nullString(flag)
	if rate.Valid {
		rec.ExchangeRate = &rate.Decimal
	}
	if gdp.Valid {
		rec.EstimatedGDP = &gdp.Decimal
	}
	rec.LastRefreshedAt = refresh.UTC()
	rec.CreatedAt = created.UTC()
	return rec, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}
