package dataprocessing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction is one line item as read from a source, before cleaning
type RawTransaction struct {
	// Row is the 1-based row in the source (header is row 1) for diagnostics
	Row         int
	InvoiceNo   string
	StockCode   string
	Description string
	Country     string
	// CustomerID is nil for anonymous or guest purchases
	CustomerID  *int64
	Quantity    int64
	UnitPrice   decimal.Decimal
	InvoiceDate time.Time
}

// TransactionRecord is a retained line item with its derived sale amount
type TransactionRecord struct {
	InvoiceNo   string
	CustomerID  int64
	Quantity    int64
	UnitPrice   decimal.Decimal
	InvoiceDate time.Time
	SaleAmount  decimal.Decimal
}

// ProgressFunc is told how many rows have been read so far.
// total is -1 when the source cannot know the row count up front.
type ProgressFunc func(done, total int)

// Source reads raw transactions from some container (workbook, CSV, database)
type Source interface {
	Load(ctx context.Context, progress ProgressFunc) ([]RawTransaction, error)
	// Name identifies the source in logs and errors
	Name() string
}

func reportProgress(progress ProgressFunc, done, total int) {
	if progress != nil {
		progress(done, total)
	}
}
