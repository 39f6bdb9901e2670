// Package postgres registers a PostgreSQL backend (pgx stdlib driver) with the
// source registry. It serves LIMS replicas and reporting copies kept in
// Postgres.
package postgres

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"trialinv/internal/source"
)

func init() {
	source.Register("postgres", source.Backend{
		DriverName: "pgx",
		DSN:        DSN,
		Code:       code,
	}, "postgresql", "pgx")
}

// DSN renders a postgres:// URL and validates it with pgx.ParseConfig.
func DSN(cfg source.Config) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("postgres: host must not be empty")
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   cfg.Host,
		Path:   "/" + cfg.Database,
	}
	if cfg.Port > 0 {
		u.Host = cfg.Addr()
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	q := url.Values{}
	q.Set("application_name", "trialinv")
	u.RawQuery = q.Encode()

	dsn := u.String()
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("postgres dsn: %w", err)
	}
	return dsn, nil
}

// code extracts the SQLSTATE from a server error.
func code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return "SQLSTATE " + pgErr.Code
	}
	return ""
}
