// Package output decides where a snapshot is written and how snapshot files
// are named:
//
//	<output_dir>[/<trial_code>]/<slug>_<timestamp>[_<dsn>].parquet
//
// The slug is the trial code with accents stripped and every run of
// characters other than letters and digits replaced by "_". Case is kept.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"trialinv/internal/config"
	"trialinv/internal/parquetfile"
)

// TimestampLayout formats the run time embedded in file names.
const TimestampLayout = "20060102T150405"

// Ext is the snapshot file extension.
const Ext = ".parquet"

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Slug reduces s to ASCII letters, digits and "_".
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Trim(nonAlnum.ReplaceAllString(folded, "_"), "_")
}

// Name returns the file name for a run at now.
func Name(trialCode, dsnName string, includeDSN bool, now time.Time) (string, error) {
	slug := Slug(trialCode)
	if slug == "" {
		return "", fmt.Errorf("trial code %q has no usable characters for a file name", trialCode)
	}
	name := slug + "_" + now.Format(TimestampLayout)
	if includeDSN {
		if dsn := Slug(dsnName); dsn != "" {
			name += "_" + dsn
		}
	}
	return name + Ext, nil
}

// Dir returns the directory snapshots for cfg are written to.
func Dir(cfg *config.Config) (string, error) {
	dir := cfg.OutputDir
	if cfg.AddTrialToPath {
		tc := strings.TrimSpace(cfg.TrialCode)
		if tc == "" || tc == "." || tc == ".." || strings.ContainsAny(tc, `/\`) {
			return "", fmt.Errorf("trial code %q cannot be used as a directory name", cfg.TrialCode)
		}
		dir = filepath.Join(dir, tc)
	}
	return dir, nil
}

// Path resolves the output path for a run at now and creates its directory.
// Failures are *parquetfile.WriteError.
func Path(cfg *config.Config, now time.Time) (string, error) {
	dir, err := Dir(cfg)
	if err != nil {
		return "", &parquetfile.WriteError{Path: cfg.OutputDir, Op: "resolve directory", Err: err}
	}
	name, err := Name(cfg.TrialCode, cfg.DSNName, cfg.IncludeDSNInFilename, now)
	if err != nil {
		return "", &parquetfile.WriteError{Path: dir, Op: "file name", Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &parquetfile.WriteError{Path: dir, Op: "create directory", Err: err}
	}
	return filepath.Join(dir, name), nil
}

// ParseName reports whether file is a snapshot of slug and returns its
// timestamp.
func ParseName(slug, file string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(file, slug+"_")
	if !ok {
		return time.Time{}, false
	}
	rest, ok = strings.CutSuffix(rest, Ext)
	if !ok || len(rest) < len(TimestampLayout) {
		return time.Time{}, false
	}
	ts, suffix := rest[:len(TimestampLayout)], rest[len(TimestampLayout):]
	if suffix != "" && !strings.HasPrefix(suffix, "_") {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, ts, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
