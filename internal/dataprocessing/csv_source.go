package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"

	apperrors "rfmcli/internal/errors"
)

// CSVSource reads transactions from a comma-separated export with the same
// header contract as the workbook
type CSVSource struct {
	Path   string
	logger *slog.Logger
}

// NewCSVSource creates a CSV source
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSource{Path: path, logger: logger.With("component", "csv_source")}
}

// Name identifies the source in logs and errors
func (s *CSVSource) Name() string { return "csv:" + s.Path }

// Load reads the whole file
func (s *CSVSource) Load(ctx context.Context, progress ProgressFunc) ([]RawTransaction, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, apperrors.NewDataUnavailableError("failed to open CSV file", err).
			WithContext("path", s.Path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewDataUnavailableError("failed to read CSV file", err).
				WithContext("path", s.Path)
		}
		rows = append(rows, record)
	}

	// Excel-saved CSVs start with a UTF-8 BOM
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = trimBOM(rows[0][0])
	}

	s.logger.InfoContext(ctx, "CSV file read",
		slog.String("path", s.Path),
		slog.Int("total_rows", len(rows)))

	return parseRows(ctx, rows, progress)
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
