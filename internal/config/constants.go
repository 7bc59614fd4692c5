package config

// Application constants
const (
	// Application Info
	AppName    = "rfm-report"
	AppVersion = "1.0.0"

	// Environment
	EnvPrefix   = "RFM"
	EnvFileName = ".env"

	// Input sources
	SourceXLSX     = "xlsx"
	SourceCSV      = "csv"
	SourceMySQL    = "mysql"
	SourcePostgres = "postgres"

	// Input defaults
	DefaultInputFile          = "data/Online Retail.xlsx"
	DefaultTransactionTable   = "transactions"
	DefaultCancellationPrefix = "C"

	// File Paths (relative to the working directory)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultReportsDir = "data/reports"

	// Report artifacts
	DefaultReportFile    = "clv_analysis_report.txt"
	DefaultChartFile     = "customer_segmentation_rfm.xlsx"
	DefaultCustomersFile = "rfm_customers.csv"
	DefaultJSONFile      = "rfm_report.json"
	DefaultMetricsFile   = "rfm_metrics.prom"
	DefaultParquetFile   = "rfm_customers.parquet"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/rfm.log"

	// Telemetry
	ExporterNone       = "none"
	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
)

// IsFileSource reports whether source reads a local file
func IsFileSource(source string) bool {
	return source == SourceXLSX || source == SourceCSV
}

// IsSQLSource reports whether source reads from a database table
func IsSQLSource(source string) bool {
	return source == SourceMySQL || source == SourcePostgres
}
