// Package sqlite registers a SQLite backend (modernc.org/sqlite, pure Go) with
// the source registry. Database is the file path; host and port are ignored.
// It is used for local extracts of exported LIMS snapshots and as the fixture
// database in tests.
package sqlite

import (
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"trialinv/internal/source"
)

func init() {
	source.Register("sqlite", source.Backend{
		DriverName: "sqlite",
		DSN:        DSN,
	}, "sqlite3")
}

// DSN opens file databases read-only so a missing file fails the ping instead
// of silently creating an empty database. ":memory:" and explicit file: URIs
// pass through unchanged.
func DSN(cfg source.Config) (string, error) {
	db := strings.TrimSpace(cfg.Database)
	if db == "" {
		return "", fmt.Errorf("sqlite: database path must not be empty")
	}
	if db == ":memory:" || strings.HasPrefix(db, "file:") {
		return db, nil
	}
	u := url.URL{Scheme: "file", Opaque: db, RawQuery: "mode=ro"}
	return u.String(), nil
}
