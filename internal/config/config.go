// Package config resolves the run configuration for a trial extract.
//
// Values come from three layers, highest precedence first:
//
//  1. command-line flags explicitly passed by the caller
//  2. the environment: the process environment, then an env file
//     (KEY=value lines, default ".env"); process variables win over the
//     file, the same way dotenv loaders leave existing variables alone
//  3. built-in defaults
//
// Flags are defined with their built-in defaults so that -help documents
// them. After parsing, every flag the caller did not set is looked up in the
// environment layer under its upper-case name (trial_code -> TRIAL_CODE).
// A variable that is set but empty counts as set: EXCLUDE_MATCODES= clears
// the list. Empty boolean and numeric variables are ignored.
//
// Typical usage:
//
//	cfg, err := config.Load() // os.Args, os.LookupEnv, .env
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	lookupenv := func(k string) (string, bool) { v, ok := testEnv[k]; return v, ok }
//	cfg, err := config.LoadFromArgs(fs, lookupenv, []string{"-trial_code=10KFS"})
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"trialinv/pkg/records"
)

// Defaults applied when neither flags nor the environment provide a value.
const (
	DefaultDBPort            = 1433
	DefaultDBDriver          = "sqlserver"
	DefaultSQLFile           = "trial_inventory.sql"
	DefaultOutputDir         = "."
	DefaultExcludeConditions = "SNR, QNSR, QNS, NSI"
	DefaultExcludeMatcodes   = "100x100Box"
	DefaultCompression       = "zstd"
	DefaultDSNName           = "PROD"
	DefaultArchiveKey        = "CONTAINERID"
	DefaultArchiveDedup      = "keep-first"
	DefaultEnvFile           = ".env"
	DefaultMetricsBackend    = "none"
	DefaultPushgatewayURL    = "http://localhost:9091"
	DefaultDogStatsDAddr     = "127.0.0.1:8125"
)

// Config is the resolved, immutable configuration for one run. It is built
// once by LoadFromArgs and only read afterwards.
type Config struct {
	// Trial selection and query.
	TrialCode string // trial/study code substituted into the SQL template
	SQLFile   string // path to the SQL template

	// Source database. Credentials are not part of the configuration; they are
	// resolved from the ambient environment by the fetcher.
	DBHost   string
	DBName   string
	DBPort   int
	DBDriver string // database/sql driver kind or an ODBC driver name

	// Output.
	OutputDir            string
	ParquetCompression   string
	AddTrialToPath       bool   // write into <output_dir>/<trial_code>/
	IncludeDSNInFilename bool   // append _<DSNName> to the file name
	DSNName              string // data source label used in file names

	// Row filters and derived columns.
	ExcludeConditions records.NullableSet
	ExcludeMatcodes   records.NullableSet
	NoViable          bool // skip the VIABLE column

	// Archive merge.
	MergeArchive   bool
	ArchiveDir     string   // defaults to the resolved output directory
	ArchiveKey     string   // row identifier shared across runs
	ArchiveColumns []string // columns to carry forward; empty means all archive-only columns
	ArchiveDedup   string   // policy for duplicate archive keys: keep-first, keep-last, most-complete

	// Metrics.
	MetricsBackend string // none, pushgateway, datadog
	PushgatewayURL string
	DogStatsDAddr  string

	// Process.
	Debug        bool
	ValidateOnly bool
	EnvFile      string
}

// Error is a ConfigurationError: a required setting is missing or a setting
// could not be parsed. Field names the offending flag.
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// raw holds the flag-bound textual values before conversion.
type raw struct {
	strs  map[string]*string
	bools map[string]*bool
	port  *int
}

// LoadFromArgs defines every flag on fs, parses args, fills unset flags from
// the environment layer (lookupenv, then the env file), converts list and
// numeric values, and validates the result. lookupenv has the signature of
// os.LookupEnv.
//
// Errors are *Error values except for flag syntax errors, which are returned
// as produced by fs.Parse (flag.ErrHelp included).
func LoadFromArgs(fs *flag.FlagSet, lookupenv func(string) (string, bool), args []string) (*Config, error) {
	r := raw{strs: map[string]*string{}, bools: map[string]*bool{}}

	str := func(name, def, usage string) {
		r.strs[name] = fs.String(name, def, usage)
	}
	boolean := func(name string, def bool, usage string) {
		r.bools[name] = fs.Bool(name, def, usage)
	}

	str("trial_code", "", "Trial code to extract (required)")
	str("sql_file", DefaultSQLFile, "SQL template containing a {TRIAL_CODE} marker")
	str("db_host", "", "Database host (required)")
	str("db_name", "", "Database name (required; file path for sqlite)")
	r.port = fs.Int("db_port", DefaultDBPort, "Database port")
	str("db_driver", DefaultDBDriver, "Database driver: sqlserver, postgres, mysql, sqlite or an ODBC driver name")
	str("output_dir", DefaultOutputDir, "Output directory for the parquet file")
	str("parquet_compression", DefaultCompression, "Parquet compression codec")
	str("dsn_name", DefaultDSNName, "Data source label appended by -include_dsn_in_filename")
	str("exclude_conditions", DefaultExcludeConditions, `Received conditions to exclude, e.g. "SNR, QNS" or ["SNR", "QNS"]`)
	str("exclude_matcodes", DefaultExcludeMatcodes, `Container matcodes to exclude; null excludes blank matcodes`)
	str("archive_dir", "", "Directory holding previous snapshots (default: output directory)")
	str("archive_key", DefaultArchiveKey, "Column identifying a row across snapshots")
	str("archive_columns", "", "Archive columns to carry forward (default: all archive-only columns)")
	str("archive_dedup", DefaultArchiveDedup, "Duplicate archive keys: keep-first, keep-last or most-complete")
	str("metrics_backend", DefaultMetricsBackend, "Metrics backend: none, pushgateway, datadog")
	str("pushgateway_url", DefaultPushgatewayURL, "Prometheus Pushgateway base URL")
	str("dogstatsd_addr", DefaultDogStatsDAddr, "DogStatsD address")
	str("env_file", DefaultEnvFile, "Environment file with KEY=value defaults")

	boolean("add_trial_to_path", false, "Write into a subdirectory named after the trial code")
	boolean("include_dsn_in_filename", false, "Include the data source label in the file name")
	boolean("no_viable", false, "Don't flag non-viable specimens")
	boolean("merge_archive", false, "Left-merge columns from the latest previous snapshot")
	boolean("debug", false, "Enable verbose logs")
	boolean("validate", false, "Validate the configuration and exit")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	fileEnv, err := readEnvFile(*r.strs["env_file"], set["env_file"], lookupenv)
	if err != nil {
		return nil, err
	}
	lookup := func(name string) (string, bool) {
		key := strings.ToUpper(name)
		if v, ok := lookupenv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}

	for name, p := range r.strs {
		if set[name] || name == "env_file" {
			continue
		}
		if v, ok := lookup(name); ok {
			*p = v
		}
	}
	for name, p := range r.bools {
		if set[name] || name == "validate" {
			continue
		}
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			b, ok := parseBool(v)
			if !ok {
				return nil, &Error{Field: name, Message: fmt.Sprintf("invalid boolean %q", v)}
			}
			*p = b
		}
	}
	if !set["db_port"] {
		if v, ok := lookup("db_port"); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, &Error{Field: "db_port", Message: fmt.Sprintf("invalid port %q", v), Err: err}
			}
			*r.port = n
		}
	}

	cfg, err := r.build()
	if err != nil {
		return nil, err
	}

	issues := Validate(cfg)
	for _, iss := range issues {
		if iss.Severity == SeverityWarning {
			log.Printf("config: warning %s: %s", iss.Path, iss.Message)
		}
	}
	if err := FirstError(issues); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is the production entry point: process flag set, process
// environment, os.Args[1:].
func Load() (*Config, error) {
	return LoadFromArgs(flag.CommandLine, os.LookupEnv, os.Args[1:])
}

// build converts the raw textual values into a Config.
func (r raw) build() (*Config, error) {
	s := func(name string) string { return strings.TrimSpace(*r.strs[name]) }
	b := func(name string) bool { return *r.bools[name] }

	conds, err := ParseList(s("exclude_conditions"))
	if err != nil {
		return nil, &Error{Field: "exclude_conditions", Message: "cannot parse list", Err: err}
	}
	matcodes, err := ParseList(s("exclude_matcodes"))
	if err != nil {
		return nil, &Error{Field: "exclude_matcodes", Message: "cannot parse list", Err: err}
	}
	archiveCols, err := ParseList(s("archive_columns"))
	if err != nil {
		return nil, &Error{Field: "archive_columns", Message: "cannot parse list", Err: err}
	}

	return &Config{
		TrialCode:            s("trial_code"),
		SQLFile:              s("sql_file"),
		DBHost:               s("db_host"),
		DBName:               s("db_name"),
		DBPort:               *r.port,
		DBDriver:             s("db_driver"),
		OutputDir:            s("output_dir"),
		ParquetCompression:   strings.ToLower(s("parquet_compression")),
		AddTrialToPath:       b("add_trial_to_path"),
		IncludeDSNInFilename: b("include_dsn_in_filename"),
		DSNName:              s("dsn_name"),
		ExcludeConditions:    records.NewNullableSet(conds...),
		ExcludeMatcodes:      records.NewNullableSet(matcodes...),
		NoViable:             b("no_viable"),
		MergeArchive:         b("merge_archive"),
		ArchiveDir:           s("archive_dir"),
		ArchiveKey:           s("archive_key"),
		ArchiveColumns:       nonNull(archiveCols),
		ArchiveDedup:         strings.ToLower(s("archive_dedup")),
		MetricsBackend:       strings.ToLower(s("metrics_backend")),
		PushgatewayURL:       s("pushgateway_url"),
		DogStatsDAddr:        s("dogstatsd_addr"),
		Debug:                b("debug"),
		ValidateOnly:         b("validate"),
		EnvFile:              s("env_file"),
	}, nil
}

// readEnvFile loads KEY=value pairs from path. A missing file is only an
// error when the caller asked for it explicitly (flag or ENV_FILE). An empty
// path, including ENV_FILE set to "", disables the file.
func readEnvFile(path string, explicitFlag bool, lookupenv func(string) (string, bool)) (map[string]string, error) {
	explicit := explicitFlag
	if !explicitFlag {
		if v, ok := lookupenv("ENV_FILE"); ok {
			path = v
			explicit = true
		}
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return map[string]string{}, nil
	}
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return map[string]string{}, nil
		}
		return nil, &Error{Field: "env_file", Message: fmt.Sprintf("cannot read %s", path), Err: err}
	}
	return m, nil
}

// parseBool accepts the common truthy/falsey spellings
// ("1/0", "true/false", "yes/no", "on/off", case-insensitive).
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "y", "t":
		return true, true
	case "0", "false", "no", "off", "n", "f":
		return false, true
	}
	return false, false
}

func nonNull(in []*string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
