package source

import (
	"context"
	"fmt"
	"log"
	"strings"

	"trialinv/internal/query"
	"trialinv/pkg/records"
)

// Query executes sqlText and materializes the full result set. Column order
// and row order follow the database. Failures are *QueryError.
func (d *DB) Query(ctx context.Context, sqlText string) (*records.Table, error) {
	qerr := func(err error) error {
		e := &QueryError{Query: query.Excerpt(sqlText, 120), Err: err}
		if d.backend.Code != nil {
			e.Code = d.backend.Code(err)
		}
		return e
	}

	rows, err := d.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, qerr(err)
	}
	defer rows.Close()

	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, qerr(fmt.Errorf("column types: %w", err))
	}
	if len(cts) == 0 {
		return nil, qerr(fmt.Errorf("statement returned no result set"))
	}

	cols := make([]string, len(cts))
	dbTypes := make([]string, len(cts))
	kinds := make([]string, len(cts))
	seen := make(map[string]int, len(cts))
	for i, ct := range cts {
		name := ct.Name()
		// Parquet column names are case-insensitive in DuckDB.
		if j, dup := seen[strings.ToLower(name)]; dup {
			return nil, qerr(fmt.Errorf("duplicate column %q at positions %d and %d (%q)", name, j+1, i+1, cols[j]))
		}
		seen[strings.ToLower(name)] = i
		cols[i] = name
		dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
		kinds[i] = KindOf(dbTypes[i])
	}

	var raw [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, qerr(fmt.Errorf("scan row %d: %w", len(raw)+1, err))
		}
		if d.backend.Value != nil {
			for i, v := range vals {
				if cv, ok := d.backend.Value(dbTypes[i], v); ok {
					vals[i] = cv
				}
			}
		}
		raw = append(raw, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, qerr(err)
	}

	tbl := &records.Table{Columns: cols, Kinds: kinds, Rows: make([]records.Record, len(raw))}
	for i := range raw {
		tbl.Rows[i] = make(records.Record, len(cols))
	}
	for c, name := range cols {
		kind := kinds[c]
		if kind == "" {
			kind = inferKind(raw, c)
		}
		if !columnFits(raw, c, kind) {
			log.Printf("source: column %q (%s) holds values that are not %s; keeping it as string", name, dbTypes[c], kind)
			kind = records.KindString
		}
		tbl.Kinds[c] = kind
		for r := range raw {
			v, _ := Normalize(kind, raw[r][c])
			tbl.Rows[r][name] = v
		}
	}
	return tbl, nil
}

// inferKind picks a kind for an untyped column from its first non-nil value.
func inferKind(raw [][]any, col int) string {
	for _, row := range raw {
		if row[col] != nil {
			return KindOfValue(row[col])
		}
	}
	return records.KindString
}

func columnFits(raw [][]any, col int, kind string) bool {
	for _, row := range raw {
		if _, ok := Normalize(kind, row[col]); !ok {
			return false
		}
	}
	return true
}
