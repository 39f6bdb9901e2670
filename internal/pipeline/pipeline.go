// Package pipeline runs one trial extract end to end:
//
//	config → query template → fetch → transform [→ archive merge] → Parquet
//
// Stages run sequentially. Each stage is timed and reported to the metrics
// backend with its outcome class, and the run ends with a row summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"trialinv/internal/archive"
	"trialinv/internal/config"
	"trialinv/internal/metrics"
	"trialinv/internal/output"
	"trialinv/internal/parquetfile"
	"trialinv/internal/query"
	"trialinv/internal/source"
	"trialinv/internal/transformer"
	"trialinv/internal/transformer/builtin"
	"trialinv/pkg/records"
)

// Stage names used in logs and metrics.
const (
	StageQuery     = "query"
	StageFetch     = "fetch"
	StageTransform = "transform"
	StageWrite     = "write"
)

// Result summarizes a successful run.
type Result struct {
	Path      string // written snapshot
	Archive   string // merged snapshot, empty when none
	Fetched   int
	Excluded  int
	NotViable int
	Written   int
}

// Test seams.
var (
	now    = time.Now
	getenv = os.Getenv
)

// Run executes the extract described by cfg and writes one snapshot file.
// Errors carry one of the typed stage errors; see Class.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	res := &Result{}
	started := now()

	debugf := func(format string, a ...any) {
		if cfg.Debug {
			log.Printf(format, a...)
		}
	}

	var sqlText string
	err := step(cfg.TrialCode, StageQuery, func() error {
		var err error
		sqlText, err = query.Build(cfg.SQLFile, cfg.TrialCode)
		return err
	})
	if err != nil {
		return nil, err
	}
	debugf("query: %s", query.Excerpt(sqlText, 200))

	var tbl *records.Table
	err = step(cfg.TrialCode, StageFetch, func() error {
		user, password := source.CredentialsFromEnv(getenv)
		scfg := source.Config{
			Kind:     cfg.DBDriver,
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			Database: cfg.DBName,
			User:     user,
			Password: password,
		}
		auth := "integrated"
		if user != "" {
			auth = "user=" + user
		}
		log.Printf("source: connecting driver=%s addr=%s db=%s auth=%s", cfg.DBDriver, scfg.Addr(), cfg.DBName, auth)

		var err error
		tbl, err = source.Fetch(ctx, scfg, sqlText)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Fetched = tbl.Len()
	metrics.RecordRows(cfg.TrialCode, "fetched", int64(res.Fetched))
	log.Printf("source: fetched %d rows columns=%d", res.Fetched, len(tbl.Columns))

	err = step(cfg.TrialCode, StageTransform, func() error {
		chain, snap, err := buildChain(ctx, cfg, tbl, res)
		if err != nil {
			return err
		}
		res.Archive = snap
		tbl = chain.Apply(tbl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(cfg.TrialCode, "excluded", int64(res.Excluded))
	metrics.RecordRows(cfg.TrialCode, "not_viable", int64(res.NotViable))

	err = step(cfg.TrialCode, StageWrite, func() error {
		path, err := output.Path(cfg, started)
		if err != nil {
			return err
		}
		if err := parquetfile.Write(ctx, path, tbl, cfg.ParquetCompression); err != nil {
			return err
		}
		res.Path = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Written = tbl.Len()
	metrics.RecordRows(cfg.TrialCode, "written", int64(res.Written))
	metrics.RecordSuccess(cfg.TrialCode, now())

	log.Printf("writer: %d %s records saved to %s with %s compression", res.Written, cfg.TrialCode, res.Path, cfg.ParquetCompression)
	logSummary(res)
	debugf("pipeline: completed in %s", now().Sub(started).Truncate(time.Millisecond))
	return res, nil
}

// step runs fn and reports its duration and outcome.
func step(trial, name string, fn func() error) error {
	start := now()
	err := fn()
	status := "success"
	if err != nil {
		status = Class(err)
	}
	metrics.RecordStep(trial, name, status, now().Sub(start))
	return err
}

// buildChain assembles the transformer chain for cfg. When merging, it also
// loads the newest previous snapshot and returns its path.
func buildChain(ctx context.Context, cfg *config.Config, tbl *records.Table, res *Result) (transformer.Chain, string, error) {
	chain := transformer.Chain{
		builtin.Normalize{},
		builtin.Exclude{Conditions: cfg.ExcludeConditions, Matcodes: cfg.ExcludeMatcodes, Dropped: &res.Excluded},
		builtin.Position{},
		builtin.SampleID{},
	}
	if !cfg.NoViable {
		chain = append(chain, builtin.Viable{Conditions: cfg.ExcludeConditions, Matcodes: cfg.ExcludeMatcodes, NotViable: &res.NotViable})
	}
	if !cfg.MergeArchive {
		return chain, "", nil
	}

	merge, snap, err := loadMerge(ctx, cfg, tbl)
	if err != nil {
		return nil, "", err
	}
	return append(chain, merge), snap, nil
}

func loadMerge(ctx context.Context, cfg *config.Config, tbl *records.Table) (builtin.Merge, string, error) {
	if !tbl.Has(cfg.ArchiveKey) {
		return builtin.Merge{}, "", &config.Error{Field: "archive_key", Message: fmt.Sprintf("extract has no %q column", cfg.ArchiveKey)}
	}

	dir := cfg.ArchiveDir
	if dir == "" {
		d, err := output.Dir(cfg)
		if err != nil {
			return builtin.Merge{}, "", &parquetfile.WriteError{Path: cfg.OutputDir, Op: "resolve archive directory", Err: err}
		}
		dir = d
	}

	snap, found, err := archive.Latest(dir, output.Slug(cfg.TrialCode))
	if err != nil {
		return builtin.Merge{}, "", &parquetfile.WriteError{Path: dir, Op: "list archive", Err: err}
	}

	prev := emptyArchive(cfg, tbl)
	if found {
		prev, err = parquetfile.Read(ctx, snap.Path)
		if err != nil {
			return builtin.Merge{}, "", &parquetfile.WriteError{Path: snap.Path, Op: "read archive", Err: err}
		}
		log.Printf("archive: merging %s rows=%d taken=%s", snap.Path, prev.Len(), snap.Taken.Format(time.RFC3339))
	} else {
		log.Printf("archive: no previous snapshot of %s in %s; every row is new", cfg.TrialCode, dir)
	}

	m, err := builtin.NewMerge(prev, cfg.ArchiveKey, cfg.ArchiveColumns, cfg.ArchiveDedup)
	if err != nil {
		return builtin.Merge{}, "", &config.Error{Field: "archive_columns", Message: "archive does not match", Err: err}
	}
	return m, snap.Path, nil
}

// emptyArchive stands in for a missing snapshot: the key plus every listed
// carried column, with no rows, so each extract row merges as new.
func emptyArchive(cfg *config.Config, tbl *records.Table) *records.Table {
	prev := &records.Table{}
	prev.AddColumn(cfg.ArchiveKey, tbl.Kind(cfg.ArchiveKey))
	for _, c := range cfg.ArchiveColumns {
		kind := records.KindString
		if i := tbl.IndexFold(c); i >= 0 {
			kind = tbl.Kind(tbl.Columns[i])
		}
		prev.AddColumn(c, kind)
	}
	return prev
}

func logSummary(r *Result) {
	log.Printf("summary: fetched=%d excluded=%d not_viable=%d written=%d",
		r.Fetched, r.Excluded, r.NotViable, r.Written)
	if r.Fetched-r.Excluded != r.Written {
		log.Printf("WARNING: row accounting mismatch: fetched=%d excluded=%d written=%d",
			r.Fetched, r.Excluded, r.Written)
	}
}

// Class names the error class of err for the CLI message and metrics status:
// ConfigurationError, TemplateError, ConnectionError, QueryError, WriteError,
// or Error for anything else.
func Class(err error) string {
	var (
		cfgErr  *config.Error
		tmplErr *query.TemplateError
		connErr *source.ConnectionError
		qErr    *source.QueryError
		wErr    *parquetfile.WriteError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "ConfigurationError"
	case errors.As(err, &tmplErr):
		return "TemplateError"
	case errors.As(err, &connErr):
		return "ConnectionError"
	case errors.As(err, &qErr):
		return "QueryError"
	case errors.As(err, &wErr):
		return "WriteError"
	}
	return "Error"
}
