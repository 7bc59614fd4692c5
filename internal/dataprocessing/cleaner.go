package dataprocessing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// CleanStats counts what the cleaner kept and dropped
type CleanStats struct {
	Input           int `json:"input"`
	MissingCustomer int `json:"missing_customer"`
	Cancelled       int `json:"cancelled"`
	Retained        int `json:"retained"`
}

// Cleaner drops anonymous and cancelled line items and derives sale amounts
type Cleaner struct {
	cancellationPrefix string
	logger             *slog.Logger
}

// NewCleaner creates a cleaner; invoices starting with cancellationPrefix are cancellations
func NewCleaner(cancellationPrefix string, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		cancellationPrefix: cancellationPrefix,
		logger:             logger.With("component", "cleaner"),
	}
}

// Clean applies both exclusion filters once. A row without a customer is
// counted as MissingCustomer even when it is also a cancellation.
func (c *Cleaner) Clean(ctx context.Context, raws []RawTransaction) ([]TransactionRecord, CleanStats) {
	stats := CleanStats{Input: len(raws)}
	out := make([]TransactionRecord, 0, len(raws))

	for _, raw := range raws {
		if raw.CustomerID == nil {
			stats.MissingCustomer++
			continue
		}
		if c.IsCancellation(raw.InvoiceNo) {
			stats.Cancelled++
			continue
		}

		out = append(out, TransactionRecord{
			InvoiceNo:   raw.InvoiceNo,
			CustomerID:  *raw.CustomerID,
			Quantity:    raw.Quantity,
			UnitPrice:   raw.UnitPrice,
			InvoiceDate: raw.InvoiceDate,
			SaleAmount:  decimal.NewFromInt(raw.Quantity).Mul(raw.UnitPrice),
		})
	}
	stats.Retained = len(out)

	c.logger.InfoContext(ctx, "Transactions cleaned",
		slog.Int("input", stats.Input),
		slog.Int("missing_customer", stats.MissingCustomer),
		slog.Int("cancelled", stats.Cancelled),
		slog.Int("retained", stats.Retained))

	return out, stats
}

// IsCancellation reports whether an invoice number marks a cancellation or return
func (c *Cleaner) IsCancellation(invoiceNo string) bool {
	return c.cancellationPrefix != "" && strings.HasPrefix(strings.TrimSpace(invoiceNo), c.cancellationPrefix)
}
