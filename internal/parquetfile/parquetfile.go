// Package parquetfile writes and reads the inventory snapshot as a Parquet
// file through an embedded in-memory DuckDB database.
//
// Write stages the table with the DuckDB appender, exports it with
// COPY ... (FORMAT PARQUET) to a temporary file next to the destination and
// renames it into place, so a failed run never leaves a partial file behind.
package parquetfile

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"trialinv/internal/ddl"
	"trialinv/pkg/records"
)

const stagingTable = "inventory"

// WriteError reports a failure creating the output directory or writing the
// file.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// MapType maps a logical column kind to its DuckDB type. Unknown kinds are
// stored as VARCHAR.
func MapType(kind string) string {
	switch kind {
	case records.KindInt:
		return "BIGINT"
	case records.KindFloat:
		return "DOUBLE"
	case records.KindBool:
		return "BOOLEAN"
	case records.KindDate:
		return "DATE"
	case records.KindTimestamp:
		return "TIMESTAMP"
	}
	return "VARCHAR"
}

// Codec maps a configured compression name to the DuckDB COPY option value.
func Codec(name string) (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "zstd", "snappy", "gzip", "brotli", "lz4", "lz4_raw", "uncompressed":
		return n, nil
	case "none", "":
		return "uncompressed", nil
	}
	return "", fmt.Errorf("unsupported parquet compression %q", name)
}

// openDB is a test seam for the DuckDB connection.
var openDB = func() (*sql.DB, error) { return sql.Open("duckdb", "") }

// Write serializes t to path with the given compression codec. The file
// appears at path only after it has been completely written.
func Write(ctx context.Context, path string, t *records.Table, codec string) error {
	werr := func(op string, err error) error { return &WriteError{Path: path, Op: op, Err: err} }

	comp, err := Codec(codec)
	if err != nil {
		return werr("compression", err)
	}
	create, err := ddl.BuildCreateTableSQL(tableDef(t))
	if err != nil {
		return werr("schema", err)
	}

	db, err := openDB()
	if err != nil {
		return werr("open duckdb", err)
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		return werr("open duckdb conn", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, create); err != nil {
		return werr("create staging table", err)
	}
	if err := appendRows(conn, t); err != nil {
		return werr("stage rows", err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	copySQL := fmt.Sprintf("COPY %s TO %s (FORMAT PARQUET, COMPRESSION %s)",
		ddl.QuoteIdentifier(stagingTable), ddl.QuoteLiteral(tmp), ddl.QuoteLiteral(comp))
	if _, err := conn.ExecContext(ctx, copySQL); err != nil {
		removeTemp(tmp)
		return werr("copy to parquet", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		removeTemp(tmp)
		return werr("rename", err)
	}
	return nil
}

func tableDef(t *records.Table) ddl.TableDef {
	def := ddl.TableDef{Name: stagingTable, Columns: make([]ddl.ColumnDef, len(t.Columns))}
	for i, c := range t.Columns {
		def.Columns[i] = ddl.ColumnDef{Name: c, SQLType: MapType(t.Kind(c))}
	}
	return def
}

func appendRows(conn *sql.Conn, t *records.Table) error {
	return conn.Raw(func(raw any) error {
		driverConn, ok := raw.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected raw conn type %T", raw)
		}
		app, err := duckdb.NewAppenderFromConn(driverConn, "", stagingTable)
		if err != nil {
			return fmt.Errorf("create appender: %w", err)
		}

		kinds := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			kinds[i] = t.Kind(c)
		}
		vals := make([]driver.Value, len(t.Columns))
		for n, r := range t.Rows {
			for i, c := range t.Columns {
				vals[i] = cell(kinds[i], r[c])
			}
			if err := app.AppendRow(vals...); err != nil {
				_ = app.Close()
				return fmt.Errorf("append row %d: %w", n+1, err)
			}
		}
		// Close flushes buffered rows.
		return app.Close()
	})
}

// cell converts a row value to the Go type the appender expects for kind.
func cell(kind string, v any) driver.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		if kind == records.KindFloat {
			return float64(x)
		}
		v = int64(x)
	case int32:
		v = int64(x)
	case float32:
		v = float64(x)
	}
	if MapType(kind) == "VARCHAR" {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	if kind == records.KindFloat {
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	}
	return v
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("parquetfile: remove temp file %s: %v", path, err)
	}
}
