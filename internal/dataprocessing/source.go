package dataprocessing

import (
	"fmt"
	"log/slog"

	"rfmcli/internal/config"
	apperrors "rfmcli/internal/errors"
)

// NewSource builds the Source selected by the input configuration
func NewSource(cfg config.InputConfig, logger *slog.Logger) (Source, error) {
	switch cfg.Source {
	case config.SourceXLSX:
		return NewXLSXSource(cfg.Path, cfg.Sheet, logger), nil
	case config.SourceCSV:
		return NewCSVSource(cfg.Path, logger), nil
	case config.SourceMySQL:
		return NewSQLSource("mysql", cfg.DSN, cfg.Table, logger), nil
	case config.SourcePostgres:
		return NewSQLSource("postgres", cfg.DSN, cfg.Table, logger), nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported input source %q", cfg.Source), nil)
	}
}
