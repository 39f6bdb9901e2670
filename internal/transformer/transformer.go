// Package transformer applies the row filters and derived columns that turn a
// fetched result table into the output table.
package transformer

import "trialinv/pkg/records"

// Transformer rewrites a table. Implementations may mutate rows in place and
// add columns; they never add rows.
type Transformer interface{ Apply(*records.Table) *records.Table }

// Func adapts a plain function to Transformer.
type Func func(*records.Table) *records.Table

func (f Func) Apply(t *records.Table) *records.Table { return f(t) }

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in *records.Table) *records.Table {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
