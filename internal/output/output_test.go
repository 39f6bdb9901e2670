package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trialinv/internal/config"
	"trialinv/internal/parquetfile"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"10KFS":          "10KFS",
		"Étude 42/B":     "Etude_42_B",
		"  trial--x  ":   "trial_x",
		"Ñandú-2024":     "Nandu_2024",
		"***":            "",
		"Mixed.Case_Ok!": "Mixed_Case_Ok",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)
	out := t.TempDir()

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "plain",
			cfg:  config.Config{TrialCode: "10KFS", OutputDir: out},
			want: filepath.Join(out, "10KFS_20240305T143000.parquet"),
		},
		{
			name: "trial_subdirectory",
			cfg:  config.Config{TrialCode: "10KFS", OutputDir: out, AddTrialToPath: true},
			want: filepath.Join(out, "10KFS", "10KFS_20240305T143000.parquet"),
		},
		{
			name: "dsn_label",
			cfg:  config.Config{TrialCode: "10KFS", OutputDir: out, IncludeDSNInFilename: true, DSNName: "PROD"},
			want: filepath.Join(out, "10KFS_20240305T143000_PROD.parquet"),
		},
		{
			name: "dsn_flag_without_label",
			cfg:  config.Config{TrialCode: "10KFS", OutputDir: out, IncludeDSNInFilename: true},
			want: filepath.Join(out, "10KFS_20240305T143000.parquet"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Path(&tt.cfg, now)
			if err != nil {
				t.Fatalf("Path: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Path = %q, want %q", got, tt.want)
			}
			if fi, err := os.Stat(filepath.Dir(got)); err != nil || !fi.IsDir() {
				t.Fatalf("directory not created: %v", err)
			}
		})
	}
}

func TestPathErrors(t *testing.T) {
	t.Parallel()

	// A regular file where the output directory should be.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []config.Config{
		{TrialCode: "10KFS", OutputDir: filepath.Join(blocker, "sub")},
		{TrialCode: "../escape", OutputDir: t.TempDir(), AddTrialToPath: true},
		{TrialCode: "***", OutputDir: t.TempDir()},
	}
	for _, cfg := range cases {
		cfg := cfg
		_, err := Path(&cfg, time.Now())
		var werr *parquetfile.WriteError
		if !errors.As(err, &werr) {
			t.Fatalf("Path(%+v) err = %v, want *parquetfile.WriteError", cfg, err)
		}
	}
}

func TestParseName(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)
	tests := []struct {
		file string
		ok   bool
	}{
		{"10KFS_20240305T143000.parquet", true},
		{"10KFS_20240305T143000_PROD.parquet", true},
		{"10KFS_B_20240305T143000.parquet", false},
		{"10KFS_20240305T143000_PROD_EU.parquet", true},
		{"10KFS_20240305T143000X.parquet", false},
		{"10KFS_20240305.parquet", false},
		{"10KFS_20240305T143000.csv", false},
		{"OTHER_20240305T143000.parquet", false},
	}
	for _, tt := range tests {
		got, ok := ParseName("10KFS", tt.file)
		if ok != tt.ok {
			t.Errorf("ParseName(%q) ok = %v, want %v", tt.file, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(want) {
			t.Errorf("ParseName(%q) = %v, want %v", tt.file, got, want)
		}
	}
}
