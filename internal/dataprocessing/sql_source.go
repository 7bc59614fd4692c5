package dataprocessing

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	apperrors "rfmcli/internal/errors"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// SQLSource reads transactions from a table in MySQL/MariaDB or PostgreSQL.
// The table must expose InvoiceNo, CustomerID, Quantity, UnitPrice and InvoiceDate.
type SQLSource struct {
	Driver string // "mysql" or "postgres"
	DSN    string
	Table  string
	logger *slog.Logger
}

// NewSQLSource creates a database source
func NewSQLSource(driver, dsn, table string, logger *slog.Logger) *SQLSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLSource{Driver: driver, DSN: dsn, Table: table, logger: logger.With("component", "sql_source")}
}

// Name identifies the source in logs and errors; credentials are not included
func (s *SQLSource) Name() string { return s.Driver + ":" + s.Table }

// Load runs a single SELECT over the table
func (s *SQLSource) Load(ctx context.Context, progress ProgressFunc) ([]RawTransaction, error) {
	if !tableNamePattern.MatchString(s.Table) {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("invalid table name %q", s.Table))
	}

	dsn := s.DSN
	if s.Driver == "mysql" {
		var err error
		if dsn, err = toMySQLDSN(dsn); err != nil {
			return nil, apperrors.NewDataUnavailableError("invalid MySQL DSN", err)
		}
	}

	db, err := sql.Open(s.Driver, dsn)
	if err != nil {
		return nil, apperrors.NewDataUnavailableError("failed to open database", err).
			WithContext("driver", s.Driver)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, apperrors.NewDataUnavailableError("database unreachable", err).
			WithContext("driver", s.Driver)
	}

	query := fmt.Sprintf(
		"SELECT InvoiceNo, CustomerID, Quantity, UnitPrice, InvoiceDate FROM %s", s.Table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewDataUnavailableError("failed to query transactions", err).
			WithContext("table", s.Table)
	}
	defer rows.Close()

	columnMap := sqlColumnMap()
	var out []RawTransaction
	rowNum := 1
	for rows.Next() {
		rowNum++
		values := make([]any, 5)
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d: scan failed", rowNum), err)
		}

		tx, err := parseRow(rowStrings(values), columnMap, rowNum)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)

		if len(out)%progressEvery == 0 {
			reportProgress(progress, len(out), -1)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataUnavailableError("failed while reading transactions", err).
			WithContext("table", s.Table)
	}
	reportProgress(progress, len(out), len(out))

	s.logger.InfoContext(ctx, "Transactions queried",
		slog.String("driver", s.Driver),
		slog.String("table", s.Table),
		slog.Int("rows", len(out)))

	return out, nil
}

// sqlColumnMap matches the column order of the SELECT
func sqlColumnMap() map[string]int {
	return map[string]int{
		colInvoiceNo:   0,
		colCustomerID:  1,
		colQuantity:    2,
		colUnitPrice:   3,
		colInvoiceDate: 4,
	}
}

func rowStrings(values []any) []string {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = stringValue(v)
	}
	return row
}

// toMySQLDSN converts mysql:// and mariadb:// URLs into the go-sql-driver form.
// Anything else is assumed to already be a driver DSN.
func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pass, _ = u.User.Password()
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}
