package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rfmcli/internal/report"
)

// customerHeaders are the columns of the per-customer CSV
var customerHeaders = []string{
	"CustomerID",
	"Recency (Days)",
	"Frequency (No. of Orders)",
	"Monetary ($)",
	"Last Purchase",
	"R",
	"F",
	"M",
	"RFM Score",
	"Segment",
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file, replacing any existing file
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

// WriteCustomers writes one row per scored customer, in customer ID order
func (w *CSVWriter) WriteCustomers(filePath string, r *report.Report) error {
	records := make([][]string, 0, len(r.Customers))
	for _, c := range r.Customers {
		records = append(records, []string{
			formatInt(c.CustomerID),
			formatInt(int64(c.RecencyDays)),
			formatInt(int64(c.Frequency)),
			formatMoney(c.Monetary),
			formatTime(c.LastPurchase, dateLayout),
			formatInt(int64(c.RScore)),
			formatInt(int64(c.FScore)),
			formatInt(int64(c.MScore)),
			c.RFMScore(),
			string(c.Segment),
		})
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers:   customerHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}
