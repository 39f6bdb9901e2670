package builtin

import (
	"strings"
	"testing"
	"time"

	"trialinv/pkg/records"
)

func archiveTable() *records.Table {
	return &records.Table{
		Columns: []string{"CONTAINERID", "AMOUNTLEFT", "RECEIVED", "REVIEW", FieldArchiveStatus},
		Kinds:   []string{records.KindString, records.KindFloat, records.KindTimestamp, records.KindString, records.KindString},
		Rows: []records.Record{
			{"CONTAINERID": "C1", "AMOUNTLEFT": 2.0, "RECEIVED": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "REVIEW": "ok", FieldArchiveStatus: "new"},
			{"CONTAINERID": "C2", "AMOUNTLEFT": 1.0, "RECEIVED": nil, "REVIEW": "hold", FieldArchiveStatus: "new"},
			{"CONTAINERID": "C2", "AMOUNTLEFT": 9.0, "RECEIVED": nil, "REVIEW": "dup", FieldArchiveStatus: "new"},
			{"CONTAINERID": "GONE", "AMOUNTLEFT": 1.0, "REVIEW": "x", FieldArchiveStatus: "new"},
		},
	}
}

func extractTable() *records.Table {
	est := time.FixedZone("EST", -5*3600)
	return &records.Table{
		Columns: []string{"CONTAINERID", "AMOUNTLEFT", "RECEIVED"},
		Kinds:   []string{records.KindString, records.KindFloat, records.KindTimestamp},
		Rows: []records.Record{
			// Same instant in another zone and an integral amount: unchanged.
			{"CONTAINERID": "C1", "AMOUNTLEFT": int64(2), "RECEIVED": time.Date(2024, 1, 1, 22, 4, 5, 0, est)},
			{"CONTAINERID": "C2", "AMOUNTLEFT": 0.5, "RECEIVED": nil},
			{"CONTAINERID": "C3", "AMOUNTLEFT": 1.0, "RECEIVED": nil},
			{"CONTAINERID": nil, "AMOUNTLEFT": 1.0},
		},
	}
}

func TestMergeApply_DefaultColumns(t *testing.T) {
	t.Parallel()

	m, err := NewMerge(archiveTable(), "CONTAINERID", nil, "")
	if err != nil {
		t.Fatalf("NewMerge: %v", err)
	}
	out := m.Apply(extractTable())

	if out.Len() != 4 {
		t.Fatalf("rows = %d, want 4 (archive-only rows dropped)", out.Len())
	}
	wantCols := "CONTAINERID AMOUNTLEFT RECEIVED REVIEW ARCHIVE_STATUS"
	if got := strings.Join(out.Columns, " "); got != wantCols {
		t.Fatalf("columns = %q, want %q", got, wantCols)
	}
	if out.Kind("REVIEW") != records.KindString {
		t.Fatalf("REVIEW kind = %q", out.Kind("REVIEW"))
	}

	wantStatus := []any{StatusUnchanged, StatusChanged, StatusNew, StatusNew}
	wantReview := []any{"ok", "hold", nil, nil}
	for i := range wantStatus {
		if got := out.Rows[i][FieldArchiveStatus]; got != wantStatus[i] {
			t.Errorf("row %d status = %v, want %v", i, got, wantStatus[i])
		}
		if got := out.Rows[i]["REVIEW"]; got != wantReview[i] {
			t.Errorf("row %d REVIEW = %v, want %v", i, got, wantReview[i])
		}
	}
}

func TestMergeApply_ExplicitColumns(t *testing.T) {
	t.Parallel()

	m, err := NewMerge(archiveTable(), "CONTAINERID", []string{"AMOUNTLEFT", "CONTAINERID"}, "")
	if err != nil {
		t.Fatalf("NewMerge: %v", err)
	}
	out := m.Apply(extractTable())

	if out.Has("REVIEW") {
		t.Fatalf("REVIEW carried without being listed")
	}
	col := "AMOUNTLEFT" + ArchivedSuffix
	if !out.Has(col) {
		t.Fatalf("missing %s in %v", col, out.Columns)
	}
	if out.Rows[1][col] != 1.0 || out.Rows[1]["AMOUNTLEFT"] != 0.5 {
		t.Fatalf("row 1 = %#v", out.Rows[1])
	}
}

func TestNewMerge_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewMerge(nil, "CONTAINERID", nil, ""); err == nil {
		t.Fatal("nil archive accepted")
	}
	if _, err := NewMerge(archiveTable(), "BARCODE", nil, ""); err == nil {
		t.Fatal("missing key column accepted")
	}
	if _, err := NewMerge(archiveTable(), "CONTAINERID", []string{"NOPE"}, ""); err == nil {
		t.Fatal("unknown carried column accepted")
	}
	if _, err := NewMerge(archiveTable(), "CONTAINERID", nil, "newest"); err == nil {
		t.Fatal("unknown duplicate policy accepted")
	}
}

func TestNewMerge_DuplicatePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		policy string
		review any
	}{
		{policy: "", review: "hold"},
		{policy: PolicyKeepFirst, review: "hold"},
		{policy: PolicyKeepLast, review: "dup"},
	}
	for _, tt := range tests {
		m, err := NewMerge(archiveTable(), "CONTAINERID", []string{"REVIEW"}, tt.policy)
		if err != nil {
			t.Fatalf("NewMerge(%q): %v", tt.policy, err)
		}
		out := m.Apply(extractTable())
		if got := out.Rows[1]["REVIEW"]; got != tt.review {
			t.Errorf("policy %q: C2 REVIEW = %v, want %v", tt.policy, got, tt.review)
		}
	}
}
