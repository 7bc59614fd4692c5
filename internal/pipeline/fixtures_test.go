package pipeline

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"rfmcli/internal/dataprocessing"
)

// txn is one line item; customer is nil for anonymous rows
type txn struct {
	invoice  string
	customer any
	qty      int
	date     time.Time
	price    float64
}

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2011, month, day, hour, minute, 0, 0, time.UTC)
}

var scenarioReference = time.Date(2011, 12, 10, 12, 50, 0, 0, time.UTC)

// scenarioTxns is 35 rows: 30 retained line items across six customers, two
// anonymous rows, two cancellations and one customer whose net spend is negative.
//
//	customer  recency  frequency  monetary  R F M  segment
//	101       1        8          3000      5 5 5  Champions
//	102       3        6          400       5 4 2  Loyal Customers
//	103       10       1          120       4 1 1  Standard
//	104       30       4          900       3 3 4  Potential Loyalists
//	105       100      2          650       2 2 3  At-Risk
//	106       192      1          50        1 1 1  At-Risk
func scenarioTxns() []txn {
	return []txn{
		{"581001", 101, 10, at(10, 3, 9, 0), 30},
		{"581001", 101, 10, at(10, 3, 9, 0), 30},
		{"581002", 101, 10, at(10, 17, 9, 0), 30},
		{"581002", 101, 10, at(10, 17, 9, 0), 30},
		{"581003", 101, 10, at(11, 1, 9, 0), 30},
		{"581004", 101, 10, at(11, 8, 9, 0), 30},
		{"581005", 101, 10, at(11, 15, 9, 0), 30},
		{"581006", 101, 10, at(11, 22, 9, 0), 30},
		{"581007", 101, 10, at(12, 2, 9, 0), 30},
		{"581008", 101, 10, at(12, 9, 12, 50), 30},
		{"C581009", 101, -10, at(12, 15, 9, 0), 30},

		{"581101", 102, 5, at(8, 1, 10, 0), 10},
		{"581101", 102, 5, at(8, 1, 10, 0), 10},
		{"581102", 102, 5, at(9, 1, 10, 0), 10},
		{"581102", 102, 5, at(9, 1, 10, 0), 10},
		{"581103", 102, 5, at(10, 1, 10, 0), 10},
		{"581104", 102, 5, at(11, 1, 10, 0), 10},
		{"581105", 102, 5, at(12, 1, 10, 0), 10},
		{"581106", 102, 5, at(12, 7, 10, 0), 10},
		{"C581107", 102, -5, at(12, 8, 10, 0), 10},

		{"581201", 103, 12, at(11, 30, 9, 0), 5},
		{"581201", 103, 12, at(11, 30, 9, 0), 5},

		{"581301", 104, 6, at(5, 10, 9, 0), 25},
		{"581301", 104, 6, at(5, 10, 9, 0), 25},
		{"581302", 104, 6, at(7, 10, 9, 0), 25},
		{"581302", 104, 6, at(7, 10, 9, 0), 25},
		{"581303", 104, 6, at(9, 10, 9, 0), 25},
		{"581304", 104, 6, at(11, 10, 9, 0), 25},

		{"581401", 105, 8, at(3, 1, 9, 0), 25},
		{"581401", 105, 8, at(3, 1, 9, 0), 25},
		{"581402", 105, 10, at(9, 1, 9, 0), 25},

		{"581501", 106, 20, at(6, 1, 9, 0), 2.5},

		{"581601", nil, 3, at(12, 20, 9, 0), 100},
		{"581602", nil, 1, at(1, 6, 9, 0), 5},
		{"581701", 107, -5, at(1, 5, 9, 0), 10},
	}
}

func toRaw(txns []txn) []dataprocessing.RawTransaction {
	out := make([]dataprocessing.RawTransaction, 0, len(txns))
	for i, t := range txns {
		raw := dataprocessing.RawTransaction{
			Row:         i + 2,
			InvoiceNo:   t.invoice,
			Quantity:    int64(t.qty),
			UnitPrice:   decimal.NewFromFloat(t.price),
			InvoiceDate: t.date,
		}
		if id, ok := t.customer.(int); ok {
			cid := int64(id)
			raw.CustomerID = &cid
		}
		out = append(out, raw)
	}
	return out
}

func toWorkbookRows(txns []txn) [][]any {
	rows := [][]any{{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"}}
	for _, t := range txns {
		rows = append(rows, []any{t.invoice, "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", t.qty, t.date, t.price, t.customer, "United Kingdom"})
	}
	return rows
}

// memorySource serves fixed rows, or fails with err
type memorySource struct {
	rows  []dataprocessing.RawTransaction
	err   error
	calls int
}

func (m *memorySource) Load(ctx context.Context, progress dataprocessing.ProgressFunc) ([]dataprocessing.RawTransaction, error) {
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if progress != nil {
		progress(len(m.rows), len(m.rows))
	}
	return m.rows, nil
}

func (m *memorySource) Name() string { return "memory" }
