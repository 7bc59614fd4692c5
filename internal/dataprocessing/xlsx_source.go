package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "rfmcli/internal/errors"
)

// XLSXSource reads transactions from a workbook such as "Online Retail.xlsx".
// Row 1 of the sheet is the header; the sheet defaults to the first one.
type XLSXSource struct {
	Path   string
	Sheet  string
	logger *slog.Logger
}

// NewXLSXSource creates a workbook source
func NewXLSXSource(path, sheet string, logger *slog.Logger) *XLSXSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXSource{Path: path, Sheet: sheet, logger: logger.With("component", "xlsx_source")}
}

// Name identifies the source in logs and errors
func (s *XLSXSource) Name() string { return "xlsx:" + s.Path }

// Load reads every data row of the sheet
func (s *XLSXSource) Load(ctx context.Context, progress ProgressFunc) ([]RawTransaction, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, apperrors.NewDataUnavailableError("failed to open workbook", err).
			WithContext("path", s.Path)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewDataUnavailableError("workbook has no sheets", nil).
				WithContext("path", s.Path)
		}
		sheet = sheets[0]
	}

	// Raw values keep dates as serial numbers and IDs without display formatting
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewDataUnavailableError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			WithContext("path", s.Path)
	}

	s.logger.InfoContext(ctx, "Workbook opened",
		slog.String("path", s.Path),
		slog.String("sheet", sheet),
		slog.Int("total_rows", len(rows)))

	return parseRows(ctx, rows, progress)
}

// parseRows maps the header and converts every non-blank data row
func parseRows(ctx context.Context, rows [][]string, progress ProgressFunc) ([]RawTransaction, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewDataUnavailableError("source has no header row", nil)
	}

	columnMap, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	total := len(rows) - 1
	out := make([]RawTransaction, 0, total)
	for i, row := range rows[1:] {
		if i%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			reportProgress(progress, i, total)
		}
		if isBlankRow(row) {
			continue
		}
		tx, err := parseRow(row, columnMap, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	reportProgress(progress, total, total)

	return out, nil
}

// progressEvery is how many rows pass between progress callbacks
const progressEvery = 1000
