package exporter

import (
	"context"
	"log/slog"

	"rfmcli/internal/config"
	apperrors "rfmcli/internal/errors"
	"rfmcli/internal/report"
)

// Artifact is one written output file
type Artifact struct {
	Kind string
	Path string
}

// Exporter writes every configured artifact of a report
type Exporter struct {
	paths  *config.Paths
	logger *slog.Logger
	text   *TextWriter
	csv    *CSVWriter
	chart  *ChartWriter
}

// NewExporter creates an exporter writing to paths
func NewExporter(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "exporter")
	return &Exporter{
		paths:  paths,
		logger: logger,
		text:   NewTextWriter(logger),
		csv:    NewCSVWriter(logger),
		chart:  NewChartWriter(logger),
	}
}

// Export writes the text report, then the chart, customer CSV, Parquet and
// JSON artifacts. An empty report only produces the text and JSON files.
// The first failure stops the export with a STORAGE error naming the file.
func (e *Exporter) Export(ctx context.Context, r *report.Report) ([]Artifact, error) {
	var written []Artifact

	steps := []struct {
		kind      string
		path      string
		skipEmpty bool
		write     func(path string) error
	}{
		{"report", e.paths.ReportFile, false, func(p string) error { return e.text.WriteFile(p, r) }},
		{"chart", e.paths.ChartFile, true, func(p string) error { return e.chart.WriteFile(p, r.Chart) }},
		{"customers", e.paths.CustomersFile, true, func(p string) error { return e.csv.WriteCustomers(p, r) }},
		{"parquet", e.paths.ParquetFile, true, func(p string) error { return WriteParquet(p, r, e.logger) }},
		{"json", e.paths.JSONFile, false, func(p string) error { return WriteJSON(p, r, e.logger) }},
	}

	for _, step := range steps {
		if step.path == "" || (step.skipEmpty && r.Empty) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := step.write(step.path); err != nil {
			return written, apperrors.NewStorageError("failed to write "+step.kind, err).
				WithContext("path", step.path)
		}
		written = append(written, Artifact{Kind: step.kind, Path: step.path})
	}

	e.logger.InfoContext(ctx, "Artifacts written",
		slog.Int("count", len(written)),
		slog.Bool("empty_report", r.Empty))
	return written, nil
}
