package builtin

import (
	"log"
	"math"

	"trialinv/pkg/records"
)

// Viable flags each specimen with VIABLE. A specimen is viable when neither
// its matcode, received condition nor sample condition is excluded and it has
// a positive AMOUNTLEFT.
type Viable struct {
	Conditions records.NullableSet
	Matcodes   records.NullableSet

	// NotViable is incremented by the number of flagged rows when non-nil.
	NotViable *int
}

func (v Viable) Apply(t *records.Table) *records.Table {
	if !derive(t, FieldViable, records.KindBool) {
		return t
	}

	flagged := 0
	for _, r := range t.Rows {
		ok := !member(v.Matcodes, r[FieldMatcode]) &&
			!member(v.Conditions, r[FieldReceivedCondition]) &&
			!member(v.Conditions, r[FieldSampleCondition])
		if ok {
			amount, isNum := asFloat(r[FieldAmountLeft])
			ok = isNum && amount > 0
		}
		r[FieldViable] = ok
		if !ok {
			flagged++
		}
	}

	if v.NotViable != nil {
		*v.NotViable += flagged
	}
	pct := 0.0
	if n := t.Len(); n > 0 {
		pct = math.Round(float64(flagged)/float64(n)*10000) / 100
	}
	log.Printf("transform: flagged %d non-viable specimens (%.2f%%)", flagged, pct)
	return t
}
