package builtin

import (
	"regexp"
	"strconv"
	"strings"

	"trialinv/pkg/records"
)

// boxShape matches container matcodes such as "10x10Box" or "9X9 box".
var boxShape = regexp.MustCompile(`(?i)^\s*(\d+)\s*x\s*(\d+)`)

// BoxShape parses the rows x columns layout from a matcode.
func BoxShape(matcode string) (rows, cols int64, ok bool) {
	m := boxShape.FindStringSubmatch(matcode)
	if m == nil {
		return 0, 0, false
	}
	r, err1 := strconv.ParseInt(m[1], 10, 64)
	c, err2 := strconv.ParseInt(m[2], 10, 64)
	if err1 != nil || err2 != nil || r <= 0 || c <= 0 {
		return 0, 0, false
	}
	return r, c, true
}

// Position derives two columns from the storage coordinates:
//
//	POSITION  ordinal slot in the box, (ROWPOS-1)*width + COLPOS
//	LOCATION  non-empty FREEZER, RACK, BOX and POSITION joined with "/"
//
// POSITION is null when the matcode has no box shape or a coordinate is
// missing or outside the box. Either column is skipped when the extract
// already has it.
type Position struct{}

func (Position) Apply(t *records.Table) *records.Table {
	setPos := derive(t, FieldPosition, records.KindInt)
	setLoc := derive(t, FieldLocation, records.KindString)
	if !setPos && !setLoc {
		return t
	}

	for _, r := range t.Rows {
		var pos any
		if p, ok := ordinal(r); ok {
			pos = p
		}
		if setPos {
			r[FieldPosition] = pos
		}
		if !setLoc {
			continue
		}

		parts := make([]string, 0, 4)
		for _, f := range []string{FieldFreezer, FieldRack, FieldBox} {
			if s, ok := text(r[f]); ok {
				parts = append(parts, s)
			}
		}
		if pos != nil {
			parts = append(parts, strconv.FormatInt(pos.(int64), 10))
		}
		if len(parts) == 0 {
			r[FieldLocation] = nil
		} else {
			r[FieldLocation] = strings.Join(parts, "/")
		}
	}
	return t
}

func ordinal(r records.Record) (int64, bool) {
	matcode, ok := r.String(FieldMatcode)
	if !ok {
		return 0, false
	}
	height, width, ok := BoxShape(matcode)
	if !ok {
		return 0, false
	}
	row, ok := asInt(r[FieldRowPos])
	if !ok || row < 1 || row > height {
		return 0, false
	}
	col, ok := asInt(r[FieldColPos])
	if !ok || col < 1 || col > width {
		return 0, false
	}
	return (row-1)*width + col, true
}
