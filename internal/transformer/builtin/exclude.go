package builtin

import (
	"log"

	"trialinv/pkg/records"
)

// Exclude drops rows whose received condition is in Conditions or whose
// container matcode is in Matcodes. The null sentinel in either set matches
// rows where the field is absent, null or blank.
type Exclude struct {
	Conditions records.NullableSet
	Matcodes   records.NullableSet

	// Dropped is incremented by the number of removed rows when non-nil.
	Dropped *int
}

func (e Exclude) Apply(t *records.Table) *records.Table {
	kept := t.Rows[:0]
	dropped := 0
	for _, r := range t.Rows {
		if member(e.Conditions, r[FieldReceivedCondition]) || member(e.Matcodes, r[FieldMatcode]) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	// Release references held past the new length.
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept

	if e.Dropped != nil {
		*e.Dropped += dropped
	}
	log.Printf("transform: excluded %d rows conditions=%s matcodes=%s", dropped, e.Conditions, e.Matcodes)
	return t
}
