package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rfmcli/internal/report"
)

// ChartSheet is the worksheet holding the distribution and its chart
const ChartSheet = "Segments"

// ChartWriter renders the segment distribution as a workbook with a
// clustered column chart
type ChartWriter struct {
	logger *slog.Logger
}

// NewChartWriter creates a chart writer
func NewChartWriter(logger *slog.Logger) *ChartWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartWriter{logger: logger}
}

// WriteFile writes the chart series to a new workbook at filePath. Bars
// follow the series order, which is descending customer count.
func (w *ChartWriter) WriteFile(filePath string, series report.ChartSeries) error {
	if len(series.Categories) == 0 {
		return fmt.Errorf("chart series is empty")
	}
	if len(series.Categories) != len(series.Values) {
		return fmt.Errorf("chart series has %d categories but %d values",
			len(series.Categories), len(series.Values))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ChartSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(ChartSheet, "A1", &[]any{series.XLabel, series.YLabel}); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i, category := range series.Categories {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ChartSheet, cell, &[]any{category, series.Values[i]}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(ChartSheet, "A", "A", 24); err != nil {
		return err
	}

	last := len(series.Categories) + 1
	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", ChartSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", ChartSheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", ChartSheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: series.Title}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: series.XLabel}},
		},
		YAxis: excelize.ChartAxis{
			Title:          []excelize.RichTextRun{{Text: series.YLabel}},
			MajorGridLines: true,
		},
		Dimension: excelize.ChartDimension{Width: 960, Height: 480},
	}
	if err := f.AddChart(ChartSheet, "D2", chart); err != nil {
		return fmt.Errorf("failed to add chart: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Segment chart written",
		slog.String("file_path", filePath),
		slog.Int("bars", len(series.Categories)))
	return nil
}
