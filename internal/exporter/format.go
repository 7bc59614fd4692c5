package exporter

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Layouts used in every artifact
const (
	timestampLayout = "2006-01-02 15:04:05 MST"
	dateLayout      = "2006-01-02"
)

// formatMoney formats a decimal with exactly 2 decimal places
func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatTime formats t in UTC, or "" for the zero time
func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}
