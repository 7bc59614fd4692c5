package rfm

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"rfmcli/internal/dataprocessing"
)

const day = 24 * time.Hour

// ReferenceInstant returns the latest invoice date plus one day.
// ok is false when records is empty.
func ReferenceInstant(records []dataprocessing.TransactionRecord) (ref time.Time, ok bool) {
	for i, r := range records {
		if i == 0 || r.InvoiceDate.After(ref) {
			ref = r.InvoiceDate
		}
	}
	if len(records) == 0 {
		return time.Time{}, false
	}
	return ref.Add(day), true
}

// Aggregator groups cleaned transactions into per-customer metrics
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With("component", "aggregator")}
}

type accumulator struct {
	last     time.Time
	invoices map[string]struct{}
	monetary decimal.Decimal
}

// Aggregate computes recency, frequency and monetary per customer relative
// to reference, drops customers whose monetary total is not positive and
// returns the rest ordered by customer ID.
func (a *Aggregator) Aggregate(ctx context.Context, records []dataprocessing.TransactionRecord, reference time.Time) Population {
	byCustomer := make(map[int64]*accumulator)
	for _, r := range records {
		acc, ok := byCustomer[r.CustomerID]
		if !ok {
			acc = &accumulator{last: r.InvoiceDate, invoices: make(map[string]struct{})}
			byCustomer[r.CustomerID] = acc
		}
		if r.InvoiceDate.After(acc.last) {
			acc.last = r.InvoiceDate
		}
		acc.invoices[r.InvoiceNo] = struct{}{}
		acc.monetary = acc.monetary.Add(r.SaleAmount)
	}

	pop := Population{Reference: reference, Customers: make([]CustomerRFM, 0, len(byCustomer))}
	for id, acc := range byCustomer {
		if !acc.monetary.IsPositive() {
			pop.NonPositive++
			continue
		}
		pop.Customers = append(pop.Customers, CustomerRFM{
			CustomerID:   id,
			RecencyDays:  RecencyDays(reference, acc.last),
			Frequency:    len(acc.invoices),
			Monetary:     acc.monetary,
			LastPurchase: acc.last,
		})
	}
	sort.Slice(pop.Customers, func(i, j int) bool {
		return pop.Customers[i].CustomerID < pop.Customers[j].CustomerID
	})

	a.logger.InfoContext(ctx, "Customers aggregated",
		slog.Int("transactions", len(records)),
		slog.Int("customers", len(byCustomer)),
		slog.Int("non_positive_dropped", pop.NonPositive),
		slog.Int("retained", len(pop.Customers)),
		slog.Time("reference", reference))

	return pop
}

// RecencyDays counts whole days from last to reference
func RecencyDays(reference, last time.Time) int {
	d := reference.Sub(last)
	if d < 0 {
		return 0
	}
	return int(d / day)
}
