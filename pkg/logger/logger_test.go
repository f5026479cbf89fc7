package logger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLogger creates a logger writing to a temp file
func newTestLogger(t *testing.T, level string) (*Logger, string) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	logger, err := NewLogger(logFile, level)
	require.NoError(t, err)
	t.Cleanup(logger.Close)
	return logger, logFile
}

func readLog(t *testing.T, l *Logger, logFile string) string {
	l.Sync()
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	return string(content)
}

func TestLogger_NewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "test.log")

	logger, err := NewLogger(logFile, "info")
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Close()

	_, err = os.Stat(logFile)
	assert.NoError(t, err)
}

func TestLogger_LogLevels(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"warning", true},
		{"ERROR", true},
		{"invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(logFile, tt.level)
			if tt.valid {
				assert.NoError(t, err)
				assert.NotNil(t, logger)
				if logger != nil {
					logger.Close()
				}
			} else {
				assert.Error(t, err)
				assert.Nil(t, logger)
			}
		})
	}
}

func TestLogger_WriteMessages(t *testing.T) {
	logger, logFile := newTestLogger(t, "debug")

	logger.Debug("This is a debug message")
	logger.Info("This is an info message")
	logger.Warn("This is a warning message")
	logger.Error("This is an error message")

	logContent := readLog(t, logger, logFile)
	assert.Contains(t, logContent, "This is a debug message")
	assert.Contains(t, logContent, "This is an info message")
	assert.Contains(t, logContent, "This is a warning message")
	assert.Contains(t, logContent, "This is an error message")
	assert.Contains(t, logContent, "[DEBUG]")
	assert.Contains(t, logContent, "[INFO]")
	assert.Contains(t, logContent, "[WARN]")
	assert.Contains(t, logContent, "[ERROR]")
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, logFile := newTestLogger(t, "warn")

	logger.Debug("This is a debug message, should not appear")
	logger.Info("This is an info message, should not appear")
	logger.Warn("This is a warning message, should appear")
	logger.Error("This is an error message, should appear")

	logContent := readLog(t, logger, logFile)
	assert.NotContains(t, logContent, "This is a debug message, should not appear")
	assert.NotContains(t, logContent, "This is an info message, should not appear")
	assert.Contains(t, logContent, "This is a warning message, should appear")
	assert.Contains(t, logContent, "This is an error message, should appear")
}

func TestLogger_InvalidLogFile(t *testing.T) {
	// A regular file cannot be used as a directory
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	logger, err := NewLogger(filepath.Join(blocker, "test.log"), "info")
	assert.Error(t, err)
	assert.Nil(t, logger)
}

func TestLogger_Named(t *testing.T) {
	root, logFile := newTestLogger(t, "info")

	named := root.Named("binary_data_logger")
	named.Info("hello from child")
	root.Info("hello from root")

	assert.Equal(t, "binary_data_logger", named.Name())
	assert.Equal(t, "", root.Name())

	logContent := readLog(t, root, logFile)
	assert.Contains(t, logContent, "[INFO] [binary_data_logger] hello from child")
	assert.Contains(t, logContent, "[INFO] hello from root")
}

type ctxKey struct{}

func TestLogger_Appenders(t *testing.T) {
	root, _ := newTestLogger(t, "info")

	var (
		mu      sync.Mutex
		records []Record
	)
	collect := AppenderFunc(func(rec Record) {
		mu.Lock()
		defer mu.Unlock()
		records = append(records, rec)
	})

	named := root.Named("LoggingTest").WithAppender(collect)
	ctx := context.WithValue(context.Background(), ctxKey{}, "item-1")

	named.InfoContext(ctx, "Inside poller {}", 3)
	named.DebugContext(ctx, "filtered out")
	named.Warn("plain warn")
	root.Info("root has no appender")

	require.Len(t, records, 2)
	assert.Equal(t, "LoggingTest", records[0].Logger)
	assert.Equal(t, INFO, records[0].Level)
	assert.Equal(t, "Inside poller 3", records[0].Message)
	assert.Equal(t, "item-1", records[0].Context.Value(ctxKey{}))
	assert.False(t, records[0].Time.IsZero())

	assert.Equal(t, WARN, records[1].Level)
	assert.NotNil(t, records[1].Context)

	// Named children do not inherit appenders
	named.Named("other").Info("not collected")
	assert.Len(t, records, 2)
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []interface{}
		want   string
	}{
		{"no args", "RP_MESSAGE#FILE#{}#{}", nil, "RP_MESSAGE#FILE#{}#{}"},
		{"all placeholders", "RP_MESSAGE#FILE#{}#{}", []interface{}{"/tmp/a.css", "I'm logging CSS"}, "RP_MESSAGE#FILE#/tmp/a.css#I'm logging CSS"},
		{"missing arg keeps placeholder", "a {} b {}", []interface{}{1}, "a 1 b {}"},
		{"extra args dropped", "a {}", []interface{}{1, 2}, "a 1"},
		{"no placeholder", "plain", []interface{}{1}, "plain"},
		{"adjacent", "{}{}", []interface{}{"x", "y"}, "xy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.format, tt.args...))
		})
	}
}
