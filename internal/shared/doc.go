// Package shared holds helpers used across the rfmcli packages that do not
// belong to any single domain package.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler with assertion helpers for log output
//   - workbook and CSV fixture writers for transaction test data
package shared
