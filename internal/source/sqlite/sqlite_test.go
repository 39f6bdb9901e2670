package sqlite

import (
	"testing"

	"trialinv/internal/source"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		db      string
		want    string
		wantErr bool
	}{
		{db: "/data/lims.db", want: "file:/data/lims.db?mode=ro"},
		{db: ":memory:", want: ":memory:"},
		{db: "file:snap.db?mode=rw", want: "file:snap.db?mode=rw"},
		{db: "  ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := DSN(source.Config{Database: tt.db})
		if (err != nil) != tt.wantErr {
			t.Fatalf("DSN(%q) err = %v, wantErr %v", tt.db, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("DSN(%q) = %q, want %q", tt.db, got, tt.want)
		}
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	kind, b, ok := source.Resolve("SQLite3")
	if !ok || kind != "sqlite" || b.DriverName != "sqlite" {
		t.Fatalf("Resolve(SQLite3) = %q %+v %v", kind, b, ok)
	}
}
