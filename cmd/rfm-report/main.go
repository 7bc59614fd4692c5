// Command rfm-report segments customers by recency, frequency and monetary
// value and writes the CLV analysis report, chart and customer exports.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"rfmcli/internal/config"
	"rfmcli/internal/dataprocessing"
	apperrors "rfmcli/internal/errors"
	"rfmcli/internal/exporter"
	"rfmcli/internal/infrastructure"
	"rfmcli/internal/pipeline"
	"rfmcli/internal/validation"
)

// Set at build time with -ldflags
var (
	Version   = config.AppVersion
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options are the command line overrides applied on top of the loaded config
type options struct {
	configPath string
	input      string
	source     string
	outputDir  string
	noProgress bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file (defaults to rfm.yaml or configs/rfm.yaml)")
	fs.StringVar(&opts.input, "input", "", "transaction file to read (overrides input.path)")
	fs.StringVar(&opts.source, "source", "", "transaction source: xlsx, csv, mysql or postgres (overrides input.source)")
	fs.StringVar(&opts.outputDir, "out", "", "output directory for report artifacts (overrides output.dir)")
	fs.BoolVar(&opts.noProgress, "no-progress", false, "disable the load progress bar")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.input != "" {
		cfg.Input.Path = opts.input
	}
	if opts.source != "" {
		cfg.Input.Source = opts.source
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", config.AppName, Version, BuildTime)
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	paths, err := config.GetPaths(cfg.Output, cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "error: failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()
	paths.LogPathResolution(logger)

	ctx := infrastructure.WithRunID(context.Background(), infrastructure.GenerateRunID())

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create pipeline metrics", slog.String("error", err.Error()))
		return 1
	}

	logger.InfoContext(ctx, "Starting RFM segmentation",
		slog.String("version", Version),
		slog.String("source", cfg.Input.Source),
		slog.String("input", cfg.Input.Path),
		slog.String("output_dir", paths.ReportsDir))

	code := execute(ctx, cfg, paths, opts, providers, metrics, logger, stdout)

	// metrics are written even for failed runs so the failure is visible
	if err := providers.WriteMetricsTextfile(paths.MetricsFile); err != nil {
		logger.WarnContext(ctx, "Failed to write metrics textfile",
			slog.String("path", paths.MetricsFile),
			slog.String("error", err.Error()))
	}
	return code
}

func execute(
	ctx context.Context,
	cfg *config.Config,
	paths *config.Paths,
	opts *options,
	providers *infrastructure.OTelProviders,
	metrics *infrastructure.PipelineMetrics,
	logger *slog.Logger,
	stdout io.Writer,
) int {
	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInput(cfg.Input); err != nil {
		return fail(ctx, logger, err)
	}
	if err := validator.ValidateOutputDirectory(paths.ReportsDir); err != nil {
		return fail(ctx, logger, err)
	}

	source, err := dataprocessing.NewSource(cfg.Input, logger)
	if err != nil {
		return fail(ctx, logger, err)
	}

	var progress dataprocessing.ProgressFunc
	if !opts.noProgress {
		bar := progressbar.Default(-1, "loading transactions")
		defer bar.Finish()
		progress = progressUpdater(bar)
	}

	runner := pipeline.NewRunner(pipeline.Options{
		Source:             source,
		CancellationPrefix: cfg.Input.CancellationPrefix,
		Progress:           progress,
		Tracer:             providers.Tracer,
		Metrics:            metrics,
		Logger:             logger,
	})

	result, err := runner.Run(ctx)
	if err != nil {
		return fail(ctx, logger, err)
	}

	artifacts, err := exporter.NewExporter(paths, logger).Export(ctx, result.Report)
	if err != nil {
		return fail(ctx, logger, err)
	}
	if paths.MetricsFile != "" {
		artifacts = append(artifacts, exporter.Artifact{Kind: "metrics", Path: paths.MetricsFile})
	}

	printSummary(stdout, result, artifacts)
	return 0
}

// progressUpdater feeds row counts to bar, switching from a spinner to a
// bounded bar once the total is known
func progressUpdater(bar *progressbar.ProgressBar) dataprocessing.ProgressFunc {
	bounded := false
	return func(done, total int) {
		if total > 0 && !bounded {
			bar.ChangeMax(total)
			bounded = true
		}
		_ = bar.Set(done)
	}
}

// fail logs a terminal error with its type and stage and returns the exit code
func fail(ctx context.Context, logger *slog.Logger, err error) int {
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("error_type", string(apperrors.TypeOf(err))),
	}
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.Stage() != "" {
		attrs = append(attrs, slog.String("stage", appErr.Stage()))
	}
	logger.ErrorContext(ctx, "RFM segmentation failed", attrs...)
	return 1
}

func printSummary(w io.Writer, result *pipeline.Result, artifacts []exporter.Artifact) {
	r := result.Report

	fmt.Fprintln(w, "\n=== RFM SEGMENTATION SUMMARY ===")
	fmt.Fprintf(w, "Run ID:       %s\n", result.RunID)
	fmt.Fprintf(w, "Transactions: %d read, %d retained\n", r.Stats.Cleaning.Input, r.Stats.Cleaning.Retained)

	if r.Empty {
		fmt.Fprintln(w, "No customers survived cleaning; chart and customer exports were skipped.")
	} else {
		fmt.Fprintf(w, "Customers:    %d scored\n", r.Stats.ScoredCustomers)
		fmt.Fprintf(w, "Reference:    %s\n", r.Reference.UTC().Format("2006-01-02 15:04"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Segment              | Customers | Mean Monetary ($)")
		fmt.Fprintln(w, "---------------------|-----------|------------------")
		for _, s := range r.Segments {
			fmt.Fprintf(w, "%-20s | %9d | %17s\n", s.Segment, s.CustomerCount, s.MeanMonetary.StringFixed(2))
		}
	}

	fmt.Fprintln(w, "\n=== ARTIFACTS ===")
	for _, a := range artifacts {
		fmt.Fprintf(w, "%-9s %s\n", a.Kind, a.Path)
	}
}
