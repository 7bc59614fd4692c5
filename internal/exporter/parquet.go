package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"rfmcli/internal/report"
)

// ParquetCustomer is the Parquet row schema of a scored customer
type ParquetCustomer struct {
	CustomerID   int64   `parquet:"name=customer_id, type=INT64"`
	RecencyDays  int32   `parquet:"name=recency_days, type=INT32"`
	Frequency    int32   `parquet:"name=frequency, type=INT32"`
	Monetary     float64 `parquet:"name=monetary, type=DOUBLE"`
	LastPurchase string  `parquet:"name=last_purchase, type=BYTE_ARRAY, convertedtype=UTF8"`
	RScore       int32   `parquet:"name=r_score, type=INT32"`
	FScore       int32   `parquet:"name=f_score, type=INT32"`
	MScore       int32   `parquet:"name=m_score, type=INT32"`
	Segment      string  `parquet:"name=segment, type=BYTE_ARRAY, convertedtype=UTF8"`
}

const parquetWriters = 4

// WriteParquet writes the per-customer table as a snappy-compressed
// Parquet file for downstream analytics
func WriteParquet(filePath string, r *report.Report, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(filePath)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(ParquetCustomer), parquetWriters)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, c := range r.Customers {
		row := ParquetCustomer{
			CustomerID:   c.CustomerID,
			RecencyDays:  int32(c.RecencyDays),
			Frequency:    int32(c.Frequency),
			Monetary:     c.Monetary.InexactFloat64(),
			LastPurchase: formatTime(c.LastPurchase, dateLayout),
			RScore:       int32(c.RScore),
			FScore:       int32(c.FScore),
			MScore:       int32(c.MScore),
			Segment:      string(c.Segment),
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("failed to write customer %d: %w", c.CustomerID, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	logger.Info("Parquet export written",
		slog.String("file_path", filePath),
		slog.Int("rows", len(r.Customers)))
	return fw.Close()
}
