package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rfmcli/internal/report"
)

// WriteJSON writes the whole report as indented JSON
func WriteJSON(filePath string, r *report.Report, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	logger.Info("JSON report written",
		slog.String("file_path", filePath),
		slog.Int("bytes", len(data)))
	return nil
}
