package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel(" debug "))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLogger_Filtering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(LogLevelWarn, &buf).With("rdplot")

	logger.Info("hidden %d", 1)
	logger.Warn("bandwidth %.1f overridden", 7.5)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] rdplot: bandwidth 7.5 overridden")
}

func TestLogger_NilSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() { logger.Error("nothing") })
}
