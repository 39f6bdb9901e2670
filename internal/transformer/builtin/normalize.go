package builtin

import (
	"strings"

	"trialinv/pkg/records"
)

const nbsp = "\u00a0"

// Normalize trims surrounding whitespace from every string value and turns
// no-break spaces into plain spaces.
type Normalize struct{}

func (Normalize) Apply(t *records.Table) *records.Table {
	for _, r := range t.Rows {
		for k, v := range r {
			if s, ok := v.(string); ok {
				r[k] = strings.TrimSpace(strings.ReplaceAll(s, nbsp, " "))
			}
		}
	}
	return t
}
