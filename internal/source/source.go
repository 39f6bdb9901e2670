// Package source fetches the trial inventory result set from the LIMS
// database.
//
// Backends register themselves by kind from their init functions, the same
// way storage backends are wired elsewhere in the project; importing
// trialinv/internal/source/all enables every built-in backend. The package
// itself never imports a database driver.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"trialinv/pkg/records"
)

// Config identifies the database to connect to. User and Password are filled
// from the ambient environment (see CredentialsFromEnv) and are empty when the
// driver should use integrated authentication.
type Config struct {
	Kind     string // backend kind or alias, e.g. "sqlserver", "ODBC Driver 17 for SQL Server"
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Backend describes how to reach one database engine through database/sql.
type Backend struct {
	// DriverName is the name the driver registered with database/sql.
	DriverName string

	// DSN renders a connection string for cfg.
	DSN func(cfg Config) (string, error)

	// Value optionally converts a driver value before generic normalization.
	// dbType is the upper-case DatabaseTypeName of the column. It returns the
	// converted value and true when it handled v.
	Value func(dbType string, v any) (any, bool)

	// Code optionally extracts an engine error code (SQLSTATE, error number)
	// for QueryError messages.
	Code func(err error) string
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
	aliases  = map[string]string{}
)

// Register makes a backend available under kind and any aliases. Names are
// matched case-insensitively. Register panics on duplicates, as
// database/sql.Register does.
func Register(kind string, b Backend, alias ...string) {
	mu.Lock()
	defer mu.Unlock()

	k := strings.ToLower(kind)
	if _, dup := backends[k]; dup {
		panic("source: Register called twice for kind " + kind)
	}
	backends[k] = b
	for _, a := range alias {
		aliases[strings.ToLower(a)] = k
	}
}

// Kinds lists the registered backend kinds.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve maps a configured driver name to a registered kind. ODBC driver
// names ("ODBC Driver 18 for SQL Server", "{SQL Server}") resolve by
// substring, kind names before aliases.
func Resolve(name string) (string, Backend, bool) {
	mu.RLock()
	defer mu.RUnlock()

	n := strings.ToLower(strings.Trim(strings.TrimSpace(name), "{}"))
	if b, ok := backends[n]; ok {
		return n, b, true
	}
	if k, ok := aliases[n]; ok {
		return k, backends[k], true
	}
	// Kind names are more specific than generic aliases such as
	// "odbc driver", so they are tried first. Within each group the longest
	// name wins and ties break alphabetically.
	for _, k := range byLength(keys(backends)) {
		if strings.Contains(n, k) {
			return k, backends[k], true
		}
	}
	for _, a := range byLength(keys(aliases)) {
		if strings.Contains(n, a) {
			k := aliases[a]
			return k, backends[k], true
		}
	}
	return "", Backend{}, false
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func byLength(names []string) []string {
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// CredentialsFromEnv reads DB_USER and DB_PASSWORD from the ambient
// environment. Both empty means integrated authentication.
func CredentialsFromEnv(getenv func(string) string) (user, password string) {
	return getenv("DB_USER"), getenv("DB_PASSWORD")
}

// ConnectionError reports a failure to reach or authenticate to the database,
// including a missing driver.
type ConnectionError struct {
	Kind     string
	Addr     string
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s %s/%s: %v", e.Kind, e.Addr, e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failure executing the query or reading its results.
type QueryError struct {
	Query string // shortened statement text
	Code  string // engine error code when known
	Err   error
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("query [%s] %q: %v", e.Code, e.Query, e.Err)
	}
	return fmt.Sprintf("query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ErrUnknownDriver is wrapped by ConnectionError when no backend matches the
// configured driver name.
var ErrUnknownDriver = errors.New("unknown database driver")

// DB is an open source connection bound to its backend.
type DB struct {
	db      *sql.DB
	kind    string
	backend Backend
}

// Kind returns the resolved backend kind.
func (d *DB) Kind() string { return d.kind }

// Close releases the connection pool.
func (d *DB) Close() error { return d.db.Close() }

// sqlOpen is a test seam for sql.Open.
var sqlOpen = sql.Open

// Open resolves the backend, opens the pool and pings it. Every failure is a
// *ConnectionError.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	kind, b, ok := Resolve(cfg.Kind)
	if !ok {
		return nil, &ConnectionError{
			Kind: cfg.Kind, Addr: cfg.Addr(), Database: cfg.Database,
			Err: fmt.Errorf("%w %q (registered: %s)", ErrUnknownDriver, cfg.Kind, strings.Join(Kinds(), ", ")),
		}
	}
	connErr := func(err error) error {
		return &ConnectionError{Kind: kind, Addr: cfg.Addr(), Database: cfg.Database, Err: err}
	}

	dsn, err := b.DSN(cfg)
	if err != nil {
		return nil, connErr(fmt.Errorf("dsn: %w", err))
	}
	db, err := sqlOpen(b.DriverName, dsn)
	if err != nil {
		return nil, connErr(fmt.Errorf("sql.Open: %w", err))
	}
	// One query per run; a single connection is enough.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, connErr(fmt.Errorf("ping: %w", err))
	}
	return &DB{db: db, kind: kind, backend: b}, nil
}

// Fetch connects, runs query, materializes every row and closes the
// connection before returning, on success and failure alike.
func Fetch(ctx context.Context, cfg Config, query string) (*records.Table, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Printf("source: close %s: %v", db.kind, cerr)
		}
	}()
	return db.Query(ctx, query)
}
