package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"rfmcli/internal/config"
	apperrors "rfmcli/internal/errors"
)

// FileValidator checks input files and output directories before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInput checks the configured transaction source. File sources must
// point at a readable file with the right extension; SQL sources are checked
// when the connection is opened.
func (v *FileValidator) ValidateInput(in config.InputConfig) error {
	switch in.Source {
	case config.SourceXLSX:
		return v.ValidateExcelFile(in.Path)
	case config.SourceCSV:
		return v.ValidateCSVFile(in.Path)
	case config.SourceMySQL, config.SourcePostgres:
		return nil
	default:
		return apperrors.NewConfigError("unsupported input source "+in.Source, nil).
			WithContext("source", in.Source)
	}
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory "+dir, err).
			WithContext("path", dir)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory "+dir+" is not writable", err).
			WithContext("path", dir)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	if path == "" {
		return apperrors.NewDataUnavailableError("no input file configured", nil)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewDataUnavailableError("file "+path+" does not exist", err).
			WithContext("path", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewDataUnavailableError("failed to stat file "+path, err).
			WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewDataUnavailableError(path+" is a directory, not a file", nil).
			WithContext("path", path)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewDataUnavailableError("file "+path+" is not readable", err).
			WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateExcelFile checks that path is a readable Office Open XML workbook.
// Legacy .xls files cannot be opened and are rejected.
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		v.logger.Error("File is not an Excel workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewDataUnavailableError("file "+path+" is not an xlsx workbook (extension: "+ext+")", nil).
			WithContext("path", path)
	}

	// Excel leaves lock files such as "~$Online Retail.xlsx" next to open workbooks
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel file",
			slog.String("file", path))
		return apperrors.NewDataUnavailableError("file "+path+" is a temporary Excel file", nil).
			WithContext("path", path)
	}

	return nil
}

// ValidateCSVFile checks if a file is a valid CSV file
func (v *FileValidator) ValidateCSVFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		v.logger.Error("File is not a CSV file",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewDataUnavailableError("file "+path+" is not a CSV file (extension: "+ext+")", nil).
			WithContext("path", path)
	}

	return nil
}
