// Package builtin contains the inventory transformers: normalization,
// exclusion filters, derived columns and the archive merge.
package builtin

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"trialinv/pkg/records"
)

// Source columns read by the transformers.
const (
	FieldReceivedCondition = "RECEIVEDCONDITION"
	FieldSampleCondition   = "Sample Condition"
	FieldMatcode           = "MATCODE"
	FieldAmountLeft        = "AMOUNTLEFT"
	FieldComments          = "Comments"
	FieldRowPos            = "ROWPOS"
	FieldColPos            = "COLPOS"
	FieldFreezer           = "FREEZER"
	FieldRack              = "RACK"
	FieldBox               = "BOX"
)

// Derived columns.
const (
	FieldPosition      = "POSITION"
	FieldLocation      = "LOCATION"
	FieldSampleID      = "SAMPLEID"
	FieldViable        = "VIABLE"
	FieldArchiveStatus = "ARCHIVE_STATUS"
)

// derive adds the derived column name to t. A column the extract already
// carries under any letter case is left untouched and derive returns false.
func derive(t *records.Table, name, kind string) bool {
	if i := t.IndexFold(name); i >= 0 {
		log.Printf("transform: extract already has column %q; not deriving %s", t.Columns[i], name)
		return false
	}
	t.AddColumn(name, kind)
	return true
}

// member reports whether a field value belongs to set. A nil, absent or blank
// string value counts as null.
func member(set records.NullableSet, v any) bool {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		v = nil
	}
	return set.Contains(v)
}

// asInt converts integral numbers and numeric strings.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
	}
	return 0, false
}

// asFloat converts numbers and numeric strings.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

// text renders a non-null value as a label; ok is false for nil or blank.
func text(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		x = strings.TrimSpace(x)
		return x, x != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return fmt.Sprint(v), true
}
