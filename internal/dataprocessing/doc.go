// Package dataprocessing turns a raw transaction log into the cleaned line
// items the RFM aggregator consumes.
//
// # Sources
//
// Every container implements Source:
//
//   - XLSXSource reads a workbook (header in row 1, first sheet by default)
//   - CSVSource reads a CSV export with the same header
//   - SQLSource runs one SELECT against MySQL/MariaDB or PostgreSQL
//
// Required columns are InvoiceNo, CustomerID, Quantity, UnitPrice and
// InvoiceDate; header matching ignores case, spaces and underscores. A
// source that cannot be opened, or lacks a required column, fails with a
// DATA_UNAVAILABLE AppError. A malformed value in a required column fails
// with a PARSING AppError naming the row; rows are never skipped silently.
//
// # Cleaning
//
//	cleaner := dataprocessing.NewCleaner("C", logger)
//	records, stats := cleaner.Clean(ctx, raws)
//
// Rows without a customer are dropped first, then cancellations (invoice
// numbers starting with the prefix). Every retained record carries
// SaleAmount = Quantity * UnitPrice as an exact decimal.
package dataprocessing
