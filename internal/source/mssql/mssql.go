// Package mssql registers the Microsoft SQL Server backend (go-mssqldb) with
// the source registry. This is the production LIMS backend.
//
// Authentication: when no user is supplied by the ambient environment the DSN
// carries no credentials and go-mssqldb falls back to integrated (Windows)
// authentication, the equivalent of an ODBC trusted connection.
package mssql

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"trialinv/internal/source"
)

// AppName is reported to the server as the application name.
const AppName = "trialinv"

func init() {
	source.Register("sqlserver", source.Backend{
		DriverName: "sqlserver",
		DSN:        DSN,
		Value:      value,
		Code:       code,
	}, "mssql", "sql server", "odbc driver")
}

// DSN renders a sqlserver:// URL for cfg and validates it with msdsn.
func DSN(cfg source.Config) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("mssql: host must not be empty")
	}
	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	q.Set("app name", AppName)

	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     cfg.Host,
		RawQuery: q.Encode(),
	}
	if cfg.Port > 0 {
		u.Host = cfg.Addr()
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	dsn := u.String()
	// Validate early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(dsn); err != nil {
		return "", fmt.Errorf("mssql dsn: %w", err)
	}
	return dsn, nil
}

// value renders UNIQUEIDENTIFIER columns in their canonical text form;
// go-mssqldb scans them as 16 raw bytes in wire byte order.
func value(dbType string, v any) (any, bool) {
	if dbType != "UNIQUEIDENTIFIER" {
		return nil, false
	}
	b, ok := v.([]byte)
	if !ok || len(b) != 16 {
		return nil, false
	}
	var id mssql.UniqueIdentifier
	if err := id.Scan(b); err != nil {
		return nil, false
	}
	return id.String(), true
}

// code extracts the SQL Server error number.
func code(err error) string {
	var me mssql.Error
	if errors.As(err, &me) {
		return "mssql " + strconv.Itoa(int(me.Number))
	}
	return ""
}
