package builtin

import "trialinv/pkg/records"

func strp(s string) *string { return &s }

// table builds a table whose columns are the union of the row keys in first
// appearance order of cols.
func table(cols []string, rows ...records.Record) *records.Table {
	kinds := make([]string, len(cols))
	for i := range kinds {
		kinds[i] = records.KindString
	}
	return &records.Table{Columns: cols, Kinds: kinds, Rows: rows}
}

func column(t *records.Table, name string) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}
