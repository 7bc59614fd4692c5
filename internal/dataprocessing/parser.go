package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	apperrors "rfmcli/internal/errors"
)

// Column keys after header normalization
const (
	colInvoiceNo   = "invoiceno"
	colStockCode   = "stockcode"
	colDescription = "description"
	colQuantity    = "quantity"
	colInvoiceDate = "invoicedate"
	colUnitPrice   = "unitprice"
	colCustomerID  = "customerid"
	colCountry     = "country"
)

var requiredColumns = []string{colInvoiceNo, colCustomerID, colQuantity, colUnitPrice, colInvoiceDate}

// Text layouts tried for InvoiceDate, in order
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"2006-01-02",
}

// normalizeHeader folds "Invoice No", "invoice_no" and "InvoiceNo" to one key
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
	return h
}

// mapColumns locates every known column in the header row
func mapColumns(header []string) (map[string]int, error) {
	columnMap := make(map[string]int)
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := columnMap[key]; !seen && key != "" {
			columnMap[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columnMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewDataUnavailableError(
			fmt.Sprintf("missing required column(s): %s", strings.Join(missing, ", ")), nil).
			WithContext("header", header)
	}
	return columnMap, nil
}

// cell returns the trimmed value of a column, tolerating short rows
func cell(row []string, columnMap map[string]int, col string) string {
	idx, ok := columnMap[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow converts one data row into a RawTransaction
func parseRow(row []string, columnMap map[string]int, rowNum int) (RawTransaction, error) {
	tx := RawTransaction{
		Row:         rowNum,
		InvoiceNo:   cell(row, columnMap, colInvoiceNo),
		StockCode:   cell(row, columnMap, colStockCode),
		Description: cell(row, columnMap, colDescription),
		Country:     cell(row, columnMap, colCountry),
	}

	var err error
	if tx.CustomerID, err = parseCustomerID(cell(row, columnMap, colCustomerID)); err != nil {
		return tx, rowError(rowNum, colCustomerID, err)
	}
	if tx.Quantity, err = parseQuantity(cell(row, columnMap, colQuantity)); err != nil {
		return tx, rowError(rowNum, colQuantity, err)
	}
	if tx.UnitPrice, err = parseDecimal(cell(row, columnMap, colUnitPrice)); err != nil {
		return tx, rowError(rowNum, colUnitPrice, err)
	}
	if tx.InvoiceDate, err = parseInvoiceDate(cell(row, columnMap, colInvoiceDate)); err != nil {
		return tx, rowError(rowNum, colInvoiceDate, err)
	}
	if tx.InvoiceNo == "" {
		return tx, rowError(rowNum, colInvoiceNo, fmt.Errorf("empty invoice number"))
	}

	return tx, nil
}

func rowError(rowNum int, col string, err error) error {
	return apperrors.NewParsingError(fmt.Sprintf("row %d: invalid %s", rowNum, col), err).
		WithContext("row", rowNum).
		WithContext("column", col)
}

// isBlankRow reports whether every cell of row is empty
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseCustomerID returns nil for blank cells. Spreadsheet exports often
// store IDs as floats ("17850.0"); those are accepted when integral.
func parseCustomerID(s string) (*int64, error) {
	switch strings.ToLower(s) {
	case "", "nan", "null", "none":
		return nil, nil
	}

	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &id, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	id := d.IntPart()
	return &id, nil
}

func parseQuantity(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if q, err := strconv.ParseInt(s, 10, 64); err == nil {
		return q, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return d.IntPart(), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	return d, nil
}

// parseInvoiceDate accepts an Excel serial number or one of dateLayouts.
// Serial numbers are rounded to the second to absorb float error.
func parseInvoiceDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return t.Round(time.Second), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// stringValue renders a database value as the text the cell parsers expect
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
