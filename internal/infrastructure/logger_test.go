package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfmcli/internal/config"
)

func decodeLastLine(t *testing.T, content []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	entry := decodeLastLine(t, content)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "source")
}

func TestInitializeLoggerOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	dir := t.TempDir()
	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "file", FilePath: filepath.Join(dir, "a.log")})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "file", FilePath: filepath.Join(dir, "b.log")})
	require.NoError(t, err)

	assert.Same(t, first, second)
	_, err = os.Stat(filepath.Join(dir, "b.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "with run")

	entry := decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "run-123", entry["run_id"])
	assert.NotContains(t, entry, "trace_id")

	buf.Reset()
	logger.Info("without run")
	entry = decodeLastLine(t, buf.Bytes())
	assert.NotContains(t, entry, "run_id")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		warnSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warning", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)

			logger.Debug("debug line")
			logger.Warn("warn line")

			out := buf.String()
			assert.Equal(t, tt.debugSeen, strings.Contains(out, "debug line"))
			assert.Equal(t, tt.warnSeen, strings.Contains(out, "warn line"))
		})
	}
}

func TestRunIDHelpers(t *testing.T) {
	ctx := EnsureRunID(context.Background())
	runID := GetRunID(ctx)
	require.NotEmpty(t, runID)
	assert.Len(t, runID, 36)

	assert.Equal(t, runID, GetRunID(EnsureRunID(ctx)))
	assert.NotEqual(t, runID, GenerateRunID())
	assert.Empty(t, GetRunID(context.Background()))
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	WithComponent(logger, "scorer").Info("component test")
	entry := decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "scorer", entry["component"])

	buf.Reset()
	WithError(logger, os.ErrNotExist).Info("error test")
	entry = decodeLastLine(t, buf.Bytes())
	assert.Contains(t, entry["error"], "file does not exist")

	assert.Same(t, logger, WithError(logger, nil))
}
