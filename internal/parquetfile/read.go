package parquetfile

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"trialinv/internal/ddl"
	"trialinv/pkg/records"
)

// KindOf maps a DuckDB column type back to a logical kind.
func KindOf(duckType string) string {
	t := strings.ToUpper(strings.TrimSpace(duckType))
	switch {
	case t == "BIGINT", t == "INTEGER", t == "SMALLINT", t == "TINYINT",
		t == "UBIGINT", t == "UINTEGER", t == "USMALLINT", t == "UTINYINT", t == "HUGEINT":
		return records.KindInt
	case t == "DOUBLE", t == "FLOAT", t == "REAL":
		return records.KindFloat
	case t == "BOOLEAN":
		return records.KindBool
	case t == "DATE":
		return records.KindDate
	case strings.HasPrefix(t, "TIMESTAMP"):
		return records.KindTimestamp
	}
	return records.KindString
}

// Read loads a Parquet file into a table, keeping column and row order.
func Read(ctx context.Context, path string) (*records.Table, error) {
	db, err := openDB()
	if err != nil {
		return nil, fmt.Errorf("parquetfile: open duckdb: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM read_parquet("+ddl.QuoteLiteral(path)+")")
	if err != nil {
		return nil, fmt.Errorf("parquetfile: read %s: %w", path, err)
	}
	defer rows.Close()

	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("parquetfile: column types %s: %w", path, err)
	}
	t := &records.Table{Columns: make([]string, len(cts)), Kinds: make([]string, len(cts))}
	for i, ct := range cts {
		t.Columns[i] = ct.Name()
		t.Kinds[i] = KindOf(ct.DatabaseTypeName())
	}

	for rows.Next() {
		vals := make([]any, len(cts))
		ptrs := make([]any, len(cts))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("parquetfile: scan %s row %d: %w", path, t.Len()+1, err)
		}
		r := make(records.Record, len(cts))
		for i, c := range t.Columns {
			r[c] = fromDuck(t.Kinds[i], vals[i])
		}
		t.Rows = append(t.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("parquetfile: read %s: %w", path, err)
	}
	return t, nil
}

// fromDuck widens scanned DuckDB values to the canonical Go types.
func fromDuck(kind string, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case float32:
		return float64(x)
	case time.Time:
		if kind == records.KindDate {
			y, m, d := x.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
		return x.UTC()
	case []byte:
		return string(x)
	}
	if kind == records.KindString {
		if _, ok := v.(string); !ok {
			return fmt.Sprint(v)
		}
	}
	return v
}
