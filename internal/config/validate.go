// Package config provides configuration models and helpers for trial extracts.
//
// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a resolved Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Config.
//
// Path is the flag name of the offending setting (e.g. "db_host").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Codecs lists the accepted parquet compression codecs.
var Codecs = map[string]struct{}{
	"zstd":         {},
	"snappy":       {},
	"gzip":         {},
	"brotli":       {},
	"lz4":          {},
	"lz4_raw":      {},
	"uncompressed": {},
	"none":         {},
}

// DedupPolicies lists the accepted archive_dedup values.
var DedupPolicies = map[string]struct{}{
	"keep-first":    {},
	"keep-last":     {},
	"most-complete": {},
}

// Validate performs static validation of a Config. It does not mutate cfg.
func Validate(cfg *Config) []Issue {
	var issues []Issue

	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	// Required settings.
	if cfg.TrialCode == "" {
		errf("trial_code", "trial_code is required")
	}
	if cfg.DBHost == "" {
		errf("db_host", "db_host is required")
	}
	if cfg.DBName == "" {
		errf("db_name", "db_name is required")
	}

	if cfg.DBPort <= 0 || cfg.DBPort > 65535 {
		errf("db_port", "port %d out of range 1-65535", cfg.DBPort)
	}
	if cfg.DBDriver == "" {
		errf("db_driver", "db_driver must not be empty")
	}
	if cfg.SQLFile == "" {
		errf("sql_file", "sql_file must not be empty")
	}
	if cfg.OutputDir == "" {
		errf("output_dir", "output_dir must not be empty")
	}
	if _, ok := Codecs[cfg.ParquetCompression]; !ok {
		errf("parquet_compression", "unknown codec %q", cfg.ParquetCompression)
	}

	if cfg.IncludeDSNInFilename && cfg.DSNName == "" {
		warnf("dsn_name", "include_dsn_in_filename is set but dsn_name is empty; file name will not change")
	}
	if cfg.MergeArchive && cfg.ArchiveKey == "" {
		errf("archive_key", "merge_archive requires a non-empty archive_key")
	}
	if _, ok := DedupPolicies[cfg.ArchiveDedup]; !ok {
		errf("archive_dedup", "unknown duplicate policy %q", cfg.ArchiveDedup)
	}
	if !cfg.MergeArchive && (cfg.ArchiveDir != "" || len(cfg.ArchiveColumns) > 0) {
		warnf("merge_archive", "archive settings are ignored unless merge_archive is set")
	}
	for _, c := range cfg.ArchiveColumns {
		if c == cfg.ArchiveKey {
			warnf("archive_columns", "archive_key %q listed as a carried column; it is the join key and is skipped", c)
		}
	}
	if cfg.ExcludeConditions.HasNull() {
		warnf("exclude_conditions", "null in exclude_conditions drops every row without a received condition")
	}

	switch cfg.MetricsBackend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(cfg.PushgatewayURL) == "" {
			errf("pushgateway_url", "pushgateway backend requires pushgateway_url")
		}
	case "datadog":
		if strings.TrimSpace(cfg.DogStatsDAddr) == "" {
			errf("dogstatsd_addr", "datadog backend requires dogstatsd_addr")
		}
	default:
		errf("metrics_backend", "unknown metrics backend %q", cfg.MetricsBackend)
	}

	return issues
}

// FirstError converts the first error-severity issue into a *Error, or
// returns nil when there is none.
func FirstError(issues []Issue) error {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return &Error{Field: iss.Path, Message: iss.Message}
		}
	}
	return nil
}
