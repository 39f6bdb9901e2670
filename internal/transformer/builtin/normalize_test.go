package builtin

import (
	"reflect"
	"testing"

	"trialinv/pkg/records"
)

/*
TestNormalizeApply verifies that Normalize:

  - replaces U+00A0 NO-BREAK SPACE with ASCII space,
  - trims leading/trailing whitespace,
  - leaves non-string values unchanged and mutates rows in place.
*/
func TestNormalizeApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   records.Record
		want records.Record
	}{
		{
			name: "no_strings_no_change",
			in:   records.Record{"a": int64(1), "b": true, "c": nil},
			want: records.Record{"a": int64(1), "b": true, "c": nil},
		},
		{
			name: "simple_trim",
			in:   records.Record{"a": " foo ", "b": "\tbar\n"},
			want: records.Record{"a": "foo", "b": "bar"},
		},
		{
			name: "nbsp_replaced_and_trimmed",
			in:   records.Record{"a": " " + nbsp + "QNS" + nbsp + " "},
			want: records.Record{"a": "QNS"},
		},
		{
			name: "nbsp_internal_kept_as_space",
			in:   records.Record{"a": "Box" + nbsp + "12"},
			want: records.Record{"a": "Box 12"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tbl := &records.Table{Rows: []records.Record{tc.in}}
			before := reflect.ValueOf(tc.in).Pointer()

			out := Normalize{}.Apply(tbl)
			if !reflect.DeepEqual(out.Rows[0], tc.want) {
				t.Fatalf("Normalize.Apply() = %#v, want %#v", out.Rows[0], tc.want)
			}
			if reflect.ValueOf(out.Rows[0]).Pointer() != before {
				t.Fatalf("record map identity changed; want in-place mutation")
			}
		})
	}
}

func TestNormalizeApply_Empty(t *testing.T) {
	t.Parallel()

	tbl := &records.Table{Columns: []string{"A"}}
	if got := (Normalize{}).Apply(tbl); got != tbl || got.Len() != 0 {
		t.Fatalf("Normalize.Apply(empty) = %#v", got)
	}
}
