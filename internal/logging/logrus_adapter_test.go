package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAdapter(level logrus.Level) (Logger, *bytes.Buffer) {
	logrusLogger := logrus.New()
	var buf bytes.Buffer
	logrusLogger.SetOutput(&buf)
	logrusLogger.SetLevel(level)
	logrusLogger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewLogrusAdapterFromLogger(logrusLogger), &buf
}

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{name: "debug text", level: "debug", format: "text", expectLevel: logrus.DebugLevel},
		{name: "info json", level: "info", format: "json", expectLevel: logrus.InfoLevel, expectJSON: true},
		{name: "upper case level", level: "WARN", format: "text", expectLevel: logrus.WarnLevel},
		{name: "invalid level defaults to info", level: "loud", format: "text", expectLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogrusAdapter(tt.level, tt.format)
			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.expectLevel, adapter.logger.Level)

			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestNewLogrusAdapterFromLogger_Nil(t *testing.T) {
	logger := NewLogrusAdapterFromLogger(nil)
	adapter, ok := logger.(*LogrusAdapter)
	require.True(t, ok)
	assert.NotNil(t, adapter.logger)
}

func TestLogrusAdapter_LevelsAndFields(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(Logger, string, ...Field)
		message string
	}{
		{"debug", func(l Logger, m string, f ...Field) { l.Debug(m, f...) }, "debug message"},
		{"info", func(l Logger, m string, f ...Field) { l.Info(m, f...) }, "info message"},
		{"warn", func(l Logger, m string, f ...Field) { l.Warn(m, f...) }, "warn message"},
		{"error", func(l Logger, m string, f ...Field) { l.Error(m, f...) }, "error message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedAdapter(logrus.DebugLevel)
			tt.logFunc(logger, tt.message, F(FieldActivityID, "A-1"))

			output := buf.String()
			assert.Contains(t, output, tt.message)
			assert.Contains(t, output, "activity_id=A-1")
		})
	}
}

func TestLogrusAdapter_ChainedContext(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.InfoLevel)

	logger.
		WithField(FieldEntry, "batch.csv").
		WithFields(F(FieldState, "failed")).
		WithError(errors.New("disk full")).
		Error("import failed")

	output := buf.String()
	assert.Contains(t, output, "import failed")
	assert.Contains(t, output, "entry=batch.csv")
	assert.Contains(t, output, "state=failed")
	assert.Contains(t, output, "disk full")
}

func TestDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	assert.NotPanics(t, func() { logger.Info("nothing to see") })
}

func TestConvertFields(t *testing.T) {
	logrusFields := convertFields([]Field{F("a", 1), F("b", true)})
	assert.Len(t, logrusFields, 2)
	assert.Equal(t, 1, logrusFields["a"])
	assert.Equal(t, true, logrusFields["b"])
	assert.Empty(t, convertFields(nil))
}

func TestMockLogger_SharedEntries(t *testing.T) {
	mock := NewMockLogger()
	child := mock.WithField(FieldEntry, "a.csv")
	child.Info("staged")
	mock.Warn("top level")

	entries := mock.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "staged", entries[0].Message)
	assert.Equal(t, []Field{F(FieldEntry, "a.csv")}, entries[0].Fields)
	assert.True(t, mock.HasEntry("WARN", "top level"))
	assert.Len(t, mock.GetEntriesByLevel("INFO"), 1)

	mock.Clear()
	assert.Empty(t, mock.GetEntries())
}

func TestLoggerImplementations(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
	var _ Logger = (*MockLogger)(nil)
}
