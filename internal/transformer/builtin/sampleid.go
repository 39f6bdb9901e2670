package builtin

import (
	"regexp"

	"trialinv/pkg/records"
)

var sampleIDPattern = regexp.MustCompile(`SAMPLEID:(.*?),`)

// SampleID extracts SAMPLEID from the free-text Comments column. Rows without
// a "SAMPLEID:<id>," fragment get null. An extract that already has a
// SAMPLEID column keeps it.
type SampleID struct{}

func (SampleID) Apply(t *records.Table) *records.Table {
	if !derive(t, FieldSampleID, records.KindString) {
		return t
	}
	for _, r := range t.Rows {
		r[FieldSampleID] = nil
		c, ok := r.String(FieldComments)
		if !ok {
			continue
		}
		if m := sampleIDPattern.FindStringSubmatch(c); m != nil {
			r[FieldSampleID] = m[1]
		}
	}
	return t
}
