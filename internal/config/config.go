package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// InputConfig describes where transactions are read from
type InputConfig struct {
	Source             string `yaml:"source" split_words:"true" validate:"oneof=xlsx csv mysql postgres"`
	Path               string `yaml:"path" split_words:"true" validate:"required_if=Source xlsx,required_if=Source csv"`
	Sheet              string `yaml:"sheet" split_words:"true"`
	DSN                string `yaml:"dsn" split_words:"true" validate:"required_if=Source mysql,required_if=Source postgres"`
	Table              string `yaml:"table" split_words:"true"`
	CancellationPrefix string `yaml:"cancellation_prefix" split_words:"true" validate:"required"`
}

// OutputConfig names the report artifacts written below Dir
type OutputConfig struct {
	Dir           string `yaml:"dir" split_words:"true" validate:"required"`
	ReportFile    string `yaml:"report_file" split_words:"true" validate:"required"`
	ChartFile     string `yaml:"chart_file" split_words:"true" validate:"required"`
	CustomersFile string `yaml:"customers_file" split_words:"true" validate:"required"`
	JSONFile      string `yaml:"json_file" split_words:"true"`
	MetricsFile   string `yaml:"metrics_file" split_words:"true"`
	ParquetFile   string `yaml:"parquet_file" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" split_words:"true"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig selects the OpenTelemetry exporters used for a run
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" split_words:"true"`
	TraceExporter  string `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" split_words:"true" validate:"oneof=prometheus none"`
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and RFM_* environment variables, in that order of
// increasing precedence. An empty path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// .env is optional; a missing file is not an error
	if _, err := os.Stat(EnvFileName); err == nil {
		if err := godotenv.Load(EnvFileName); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", EnvFileName, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct tags and normalizes logging settings
func (c *Config) Validate() error {
	c.Input.Source = strings.ToLower(c.Input.Source)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)

	if err := newValidator().Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}

	// Always JSON
	c.Logging.Format = DefaultLogFormat
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// newValidator reports field names the way they are spelled in YAML
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"rfm.yaml",
		"configs/rfm.yaml",
		"../configs/rfm.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Source:             SourceXLSX,
			Path:               DefaultInputFile,
			Table:              DefaultTransactionTable,
			CancellationPrefix: DefaultCancellationPrefix,
		},
		Output: OutputConfig{
			Dir:           DefaultReportsDir,
			ReportFile:    DefaultReportFile,
			ChartFile:     DefaultChartFile,
			CustomersFile: DefaultCustomersFile,
			JSONFile:      DefaultJSONFile,
			MetricsFile:   DefaultMetricsFile,
			ParquetFile:   DefaultParquetFile,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  ExporterNone,
			MetricExporter: ExporterPrometheus,
		},
	}
}
