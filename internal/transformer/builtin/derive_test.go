package builtin

import (
	"strings"
	"testing"

	"trialinv/pkg/records"
)

// TestDerivedColumnsKeepExtractValues checks that a derived column never
// replaces a column the query already returned, whatever its letter case.
func TestDerivedColumnsKeepExtractValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		tr       interface{ Apply(*records.Table) *records.Table }
		cols     []string
		row      records.Record
		keep     string
		keepVal  any
		derived  string
		wantCols string
	}{
		{
			name:     "location from source",
			tr:       Position{},
			cols:     []string{FieldMatcode, FieldRowPos, FieldColPos, "LOCATION"},
			row:      records.Record{FieldMatcode: "10x10Box", FieldRowPos: int64(1), FieldColPos: int64(2), "LOCATION": "Freezer 3, shelf 2"},
			keep:     "LOCATION",
			keepVal:  "Freezer 3, shelf 2",
			derived:  FieldPosition,
			wantCols: "MATCODE ROWPOS COLPOS LOCATION POSITION",
		},
		{
			name:     "position differing in case",
			tr:       Position{},
			cols:     []string{FieldMatcode, FieldRowPos, FieldColPos, "Position"},
			row:      records.Record{FieldMatcode: "10x10Box", FieldRowPos: int64(1), FieldColPos: int64(2), "Position": "A2"},
			keep:     "Position",
			keepVal:  "A2",
			derived:  FieldLocation,
			wantCols: "MATCODE ROWPOS COLPOS Position LOCATION",
		},
		{
			name:     "sample id from source",
			tr:       SampleID{},
			cols:     []string{FieldComments, "SampleID"},
			row:      records.Record{FieldComments: "SAMPLEID:S-9,", "SampleID": "LIMS-1"},
			keep:     "SampleID",
			keepVal:  "LIMS-1",
			wantCols: "Comments SampleID",
		},
		{
			name:     "viable from source",
			tr:       Viable{},
			cols:     []string{FieldAmountLeft, "viable"},
			row:      records.Record{FieldAmountLeft: 0.0, "viable": "Y"},
			keep:     "viable",
			keepVal:  "Y",
			wantCols: "AMOUNTLEFT viable",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := tt.tr.Apply(table(tt.cols, tt.row))
			if got := strings.Join(out.Columns, " "); got != tt.wantCols {
				t.Fatalf("columns = %q, want %q", got, tt.wantCols)
			}
			if got := out.Rows[0][tt.keep]; got != tt.keepVal {
				t.Fatalf("%s = %#v, want source value %#v", tt.keep, got, tt.keepVal)
			}
			if out.Kind(tt.keep) != records.KindString {
				t.Fatalf("%s kind changed to %q", tt.keep, out.Kind(tt.keep))
			}
			if tt.derived != "" && !out.Has(tt.derived) {
				t.Fatalf("%s not derived", tt.derived)
			}
		})
	}
}

// TestMergeCarriedColumnDifferingInCase suffixes a carried column whose name
// matches an extract column only when case is ignored.
func TestMergeCarriedColumnDifferingInCase(t *testing.T) {
	t.Parallel()

	archive := table([]string{"CONTAINERID", "note"}, records.Record{"CONTAINERID": "C1", "note": "old"})
	m, err := NewMerge(archive, "CONTAINERID", []string{"note"}, "")
	if err != nil {
		t.Fatalf("NewMerge: %v", err)
	}
	out := m.Apply(table([]string{"CONTAINERID", "NOTE"}, records.Record{"CONTAINERID": "C1", "NOTE": "new"}))

	want := "CONTAINERID NOTE note_ARCHIVED ARCHIVE_STATUS"
	if got := strings.Join(out.Columns, " "); got != want {
		t.Fatalf("columns = %q, want %q", got, want)
	}
	if out.Rows[0]["NOTE"] != "new" || out.Rows[0]["note_ARCHIVED"] != "old" {
		t.Fatalf("row = %#v", out.Rows[0])
	}

	// Default selection skips archive columns the extract already has.
	m, err = NewMerge(archive, "CONTAINERID", nil, "")
	if err != nil {
		t.Fatalf("NewMerge: %v", err)
	}
	out = m.Apply(table([]string{"CONTAINERID", "NOTE"}, records.Record{"CONTAINERID": "C1", "NOTE": "new"}))
	if got := strings.Join(out.Columns, " "); got != "CONTAINERID NOTE ARCHIVE_STATUS" {
		t.Fatalf("default columns = %q", got)
	}
}
