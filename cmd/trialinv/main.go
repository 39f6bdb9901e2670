// Command trialinv extracts the specimen inventory of one trial from the LIMS
// database and writes it to a timestamped Parquet snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"trialinv/internal/config"
	"trialinv/internal/metrics"
	"trialinv/internal/metrics/datadog"
	"trialinv/internal/metrics/prompush"
	"trialinv/internal/pipeline"

	// register all source backends; config picks one by db_driver.
	_ "trialinv/internal/source/all"
)

const jobName = "trialinv"

func main() {
	os.Exit(run(os.Args[1:], os.LookupEnv, os.Stderr))
}

// run is main without the process exit, so tests can drive it.
func run(args []string, lookupenv func(string) (string, bool), stderr io.Writer) int {
	fs := flag.NewFlagSet("trialinv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg, err := config.LoadFromArgs(fs, lookupenv, args)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case err != nil && !isConfigError(err):
		// flag syntax; the flag set already printed usage
		return 2
	case err != nil:
		fmt.Fprintf(stderr, "%s: %v\n", pipeline.Class(err), err)
		return 1
	}

	if cfg.ValidateOnly {
		log.Printf("Configuration is valid: trial_code=%s driver=%s", cfg.TrialCode, cfg.DBDriver)
		return 0
	}

	flush := setupMetrics(cfg)
	defer flush()

	if _, err := pipeline.Run(context.Background(), cfg); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", pipeline.Class(err), err)
		return 1
	}
	return 0
}

func isConfigError(err error) bool {
	var ce *config.Error
	return errors.As(err, &ce)
}

// setupMetrics installs the configured backend and returns its flush func.
// A backend that fails to initialize leaves metrics disabled.
func setupMetrics(cfg *config.Config) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.MetricsBackend {
	case "pushgateway":
		b, err = prompush.NewBackend(jobName, cfg.TrialCode, cfg.PushgatewayURL)
		if err == nil {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", cfg.PushgatewayURL, cfg.MetricsBackend, jobName)
		}
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{Addr: cfg.DogStatsDAddr})
		if err == nil {
			log.Printf("metrics: addr=%v, backend=%v", cfg.DogStatsDAddr, cfg.MetricsBackend)
		}
	case "", "none":
		if cfg.Debug {
			log.Printf("metrics: disabled (backend=%q)", cfg.MetricsBackend)
		}
		return func() {}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.MetricsBackend)
		return func() {}
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", cfg.MetricsBackend, err)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
