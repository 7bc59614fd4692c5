package rfm

import (
	"time"

	"github.com/shopspring/decimal"

	"rfmcli/internal/dataprocessing"
)

type line struct {
	invoice string
	at      time.Time
	qty     int64
	price   string
}

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2011, month, day, hour, minute, 0, 0, time.UTC)
}

func records(customer int64, lines ...line) []dataprocessing.TransactionRecord {
	out := make([]dataprocessing.TransactionRecord, 0, len(lines))
	for _, l := range lines {
		price := decimal.RequireFromString(l.price)
		out = append(out, dataprocessing.TransactionRecord{
			InvoiceNo:   l.invoice,
			CustomerID:  customer,
			Quantity:    l.qty,
			UnitPrice:   price,
			InvoiceDate: l.at,
			SaleAmount:  decimal.NewFromInt(l.qty).Mul(price),
		})
	}
	return out
}

// scenarioRecords is 30 line items across six customers with a hand-computed outcome:
//
//	customer  recency  frequency  monetary  R F M  segment
//	101       1        8          3000      5 5 5  Champions
//	102       3        6          400       5 4 2  Loyal Customers
//	103       10       1          120       4 1 1  Standard
//	104       30       4          900       3 3 4  Potential Loyalists
//	105       100      2          650       2 2 3  At-Risk
//	106       192      1          50        1 1 1  At-Risk
func scenarioRecords() []dataprocessing.TransactionRecord {
	var all []dataprocessing.TransactionRecord

	all = append(all, records(101,
		line{"581001", at(10, 3, 9, 0), 10, "30.00"},
		line{"581001", at(10, 3, 9, 0), 10, "30.00"},
		line{"581002", at(10, 17, 9, 0), 10, "30.00"},
		line{"581002", at(10, 17, 9, 0), 10, "30.00"},
		line{"581003", at(11, 1, 9, 0), 10, "30.00"},
		line{"581004", at(11, 8, 9, 0), 10, "30.00"},
		line{"581005", at(11, 15, 9, 0), 10, "30.00"},
		line{"581006", at(11, 22, 9, 0), 10, "30.00"},
		line{"581007", at(12, 2, 9, 0), 10, "30.00"},
		line{"581008", at(12, 9, 12, 50), 10, "30.00"},
	)...)
	all = append(all, records(102,
		line{"581101", at(8, 1, 10, 0), 5, "10.00"},
		line{"581101", at(8, 1, 10, 0), 5, "10.00"},
		line{"581102", at(9, 1, 10, 0), 5, "10.00"},
		line{"581102", at(9, 1, 10, 0), 5, "10.00"},
		line{"581103", at(10, 1, 10, 0), 5, "10.00"},
		line{"581104", at(11, 1, 10, 0), 5, "10.00"},
		line{"581105", at(12, 1, 10, 0), 5, "10.00"},
		line{"581106", at(12, 7, 10, 0), 5, "10.00"},
	)...)
	all = append(all, records(103,
		line{"581201", at(11, 30, 9, 0), 12, "5.00"},
		line{"581201", at(11, 30, 9, 0), 12, "5.00"},
	)...)
	all = append(all, records(104,
		line{"581301", at(5, 10, 9, 0), 6, "25.00"},
		line{"581301", at(5, 10, 9, 0), 6, "25.00"},
		line{"581302", at(7, 10, 9, 0), 6, "25.00"},
		line{"581302", at(7, 10, 9, 0), 6, "25.00"},
		line{"581303", at(9, 10, 9, 0), 6, "25.00"},
		line{"581304", at(11, 10, 9, 0), 6, "25.00"},
	)...)
	all = append(all, records(105,
		line{"581401", at(3, 1, 9, 0), 8, "25.00"},
		line{"581401", at(3, 1, 9, 0), 8, "25.00"},
		line{"581402", at(9, 1, 9, 0), 10, "25.00"},
	)...)
	all = append(all, records(106,
		line{"581501", at(6, 1, 9, 0), 20, "2.50"},
	)...)

	return all
}
