// Package records defines the in-memory tabular model shared by every stage of
// the extract: the fetcher produces a Table, transformers rewrite its rows, and
// the Parquet writer serializes it.
//
// A Record is a plain map keyed by column name. A missing key and a nil value
// are equivalent and both mean SQL NULL.
package records

import (
	"slices"
	"strings"
)

// Logical column kinds. They are driver-independent and map onto Parquet
// physical types in internal/parquetfile.
const (
	KindInt       = "int"
	KindFloat     = "float"
	KindBool      = "bool"
	KindDate      = "date"
	KindTimestamp = "timestamp"
	KindString    = "string"
)

// Record is a single row keyed by column name.
type Record map[string]any

// IsNull reports whether the field is absent or nil.
func (r Record) IsNull(field string) bool {
	v, ok := r[field]
	return !ok || v == nil
}

// String returns the field as a string and whether it held a non-nil string.
func (r Record) String(field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}

// Table is an ordered result set. Columns and Kinds are parallel slices; Rows
// keep the source order.
type Table struct {
	Columns []string
	Kinds   []string
	Rows    []Record
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// IndexFold is Index with case-insensitive matching.
func (t *Table) IndexFold(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries column name.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Kind returns the logical kind of column name, or "" when absent.
func (t *Table) Kind(name string) string {
	if i := t.Index(name); i >= 0 && i < len(t.Kinds) {
		return t.Kinds[i]
	}
	return ""
}

// AddColumn appends a column definition. Re-adding an existing column updates
// its kind in place so derived columns can be recomputed idempotently.
func (t *Table) AddColumn(name, kind string) {
	if i := t.Index(name); i >= 0 {
		for len(t.Kinds) <= i {
			t.Kinds = append(t.Kinds, KindString)
		}
		t.Kinds[i] = kind
		return
	}
	t.Columns = append(t.Columns, name)
	t.Kinds = append(t.Kinds, kind)
}

// WithRows returns a shallow copy of t that carries rows instead of t.Rows.
func (t *Table) WithRows(rows []Record) *Table {
	return &Table{
		Columns: append([]string(nil), t.Columns...),
		Kinds:   append([]string(nil), t.Kinds...),
		Rows:    rows,
	}
}

// NullableSet is a set of strings that may additionally contain the null
// sentinel. It backs the exclusion lists.
type NullableSet struct {
	values map[string]struct{}
	null   bool
}

// NewNullableSet builds a set from values; a nil entry is the null sentinel.
func NewNullableSet(values ...*string) NullableSet {
	s := NullableSet{values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		if v == nil {
			s.null = true
			continue
		}
		s.values[*v] = struct{}{}
	}
	return s
}

// StringSet builds a set without the null sentinel.
func StringSet(values ...string) NullableSet {
	s := NullableSet{values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.values[v] = struct{}{}
	}
	return s
}

// HasNull reports whether the null sentinel is a member.
func (s NullableSet) HasNull() bool { return s.null }

// Len counts members including the null sentinel.
func (s NullableSet) Len() int {
	n := len(s.values)
	if s.null {
		n++
	}
	return n
}

// Contains reports whether v is a member. A nil value matches only the null
// sentinel; strings match exactly.
func (s NullableSet) Contains(v any) bool {
	if v == nil {
		return s.null
	}
	str, ok := v.(string)
	if !ok {
		return false
	}
	_, hit := s.values[str]
	return hit
}

// Values returns the string members (without the sentinel) in no set order.
func (s NullableSet) Values() []string {
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	return out
}

// String renders the set for logs, e.g. [QNS SNR <null>].
func (s NullableSet) String() string {
	vals := s.Values()
	slices.Sort(vals)
	if s.null {
		vals = append(vals, "<null>")
	}
	return "[" + strings.Join(vals, " ") + "]"
}
