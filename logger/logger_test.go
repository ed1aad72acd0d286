package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{level: "error", expected: []string{"ERROR"}, excluded: []string{"WARN", "INFO", "DEBUG"}},
		{level: "warn", expected: []string{"ERROR", "WARN"}, excluded: []string{"INFO", "DEBUG"}},
		{level: "info", expected: []string{"ERROR", "WARN", "INFO"}, excluded: []string{"DEBUG"}},
		{level: "debug", expected: []string{"ERROR", "WARN", "INFO", "DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")
			cfg := FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}

			require.NoError(t, InitWithFileConfig(tt.level, cfg, false))

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)
			logContent := string(content)

			for _, exp := range tt.expected {
				assert.Contains(t, logContent, `"level":"`+exp+`"`)
			}
			for _, exc := range tt.excluded {
				assert.NotContains(t, logContent, `"level":"`+exc+`"`)
			}
		})
	}
}

func TestNamedLoggerWritesFields(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "named.log")
	require.NoError(t, InitWithFileConfig("info", FileConfig{Path: logFile, MaxSizeMB: 1}, false))

	Named("web").Warn("client dropped", zap.String("client", "fuzzy-panda"))
	Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	line := strings.TrimSpace(string(content))
	assert.Contains(t, line, `"logger":"web"`)
	assert.Contains(t, line, `"client":"fuzzy-panda"`)
	assert.Same(t, Log, zap.L())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/viewer.log")
	assert.Equal(t, "/tmp/viewer.log", cfg.Path)
	assert.Equal(t, 20, cfg.MaxSizeMB)
	assert.Equal(t, 3, cfg.MaxBackups)
	assert.Equal(t, 7, cfg.MaxAgeDays)
	assert.True(t, cfg.Compress)
}
