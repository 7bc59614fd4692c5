package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every file path a run reads or writes.
// Optional artifacts (JSON report, Parquet export, metrics textfile) are
// empty when disabled.
type Paths struct {
	ReportsDir string
	LogsDir    string

	ReportFile    string
	ChartFile     string
	CustomersFile string
	JSONFile      string
	MetricsFile   string
	ParquetFile   string
}

// GetPaths resolves the output configuration into absolute artifact paths
func GetPaths(out OutputConfig, logging LoggingConfig) (*Paths, error) {
	reportsDir, err := filepath.Abs(out.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reports directory %q: %w", out.Dir, err)
	}

	paths := &Paths{
		ReportsDir:    reportsDir,
		ReportFile:    filepath.Join(reportsDir, out.ReportFile),
		ChartFile:     filepath.Join(reportsDir, out.ChartFile),
		CustomersFile: filepath.Join(reportsDir, out.CustomersFile),
		JSONFile:      optionalPath(reportsDir, out.JSONFile),
		MetricsFile:   optionalPath(reportsDir, out.MetricsFile),
		ParquetFile:   optionalPath(reportsDir, out.ParquetFile),
	}

	if logging.Output != "console" && logging.FilePath != "" {
		logFile, err := filepath.Abs(logging.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log file %q: %w", logging.FilePath, err)
		}
		paths.LogsDir = filepath.Dir(logFile)
	}

	return paths, nil
}

func optionalPath(dir, name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.ReportsDir}
	if p.LogsDir != "" {
		directories = append(directories, p.LogsDir)
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetReportPath returns the path for an arbitrary file in the reports directory
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// Artifacts lists the configured artifact paths, skipping disabled ones
func (p *Paths) Artifacts() []string {
	all := []string{p.ReportFile, p.ChartFile, p.CustomersFile, p.JSONFile, p.ParquetFile, p.MetricsFile}
	out := make([]string, 0, len(all))
	for _, path := range all {
		if path != "" {
			out = append(out, path)
		}
	}
	return out
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("report_files",
			slog.String("report", p.ReportFile),
			slog.String("chart", p.ChartFile),
			slog.String("customers", p.CustomersFile),
			slog.String("json", p.JSONFile),
			slog.String("parquet", p.ParquetFile),
			slog.String("metrics", p.MetricsFile),
		))
}
