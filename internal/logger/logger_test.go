package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestModuleLoggerWritesStructuredFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := NewWriterLogger(&buf, "debug")

	log := cl.Module("recognition").Module("pipeline")
	log.Info("analysis complete",
		String("classifier", "color"),
		Int("foods", 2),
		Float64("total_calories", 612.45678),
		Duration("elapsed", 1500*time.Microsecond),
		Error(errors.New("boom")))

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "analysis complete", rec["msg"])
	assert.Equal(t, "recognition.pipeline", rec["module"])
	assert.Equal(t, "color", rec["classifier"])
	assert.InDelta(t, 2, rec["foods"], 0)
	assert.InDelta(t, 612.457, rec["total_calories"], 1e-9)
	assert.Equal(t, "2ms", rec["elapsed"])
	assert.Equal(t, "boom", rec["error"])
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := NewWriterLogger(&buf, "warn")
	log := cl.Module("catalog")

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Log(LogLevelError, "also shown")

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, "WARN", records[0]["level"])
	assert.Equal(t, "ERROR", records[1]["level"])
}

func TestModuleLevelOverrideUsesDottedPrefix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := NewWriterLogger(&buf, "error")
	cl.moduleLevels["datastore"] = parseLogLevel("trace")

	cl.Module("datastore.sqlite").Trace("sql query")
	cl.Module("api").Info("dropped")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "TRACE", records[0]["level"])
	assert.Equal(t, "datastore.sqlite", records[0]["module"])
}

func TestWithFieldsAreImmutable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewWriterLogger(&buf, "info").Module("api").With(String("user", "1"))
	child := base.With(String("meal", "7"))

	base.Info("parent")
	child.Info("child")

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)
	assert.NotContains(t, records[0], "meal")
	assert.Equal(t, "7", records[1]["meal"])
	assert.Equal(t, "1", records[1]["user"])
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWriterLogger(&buf, "info").Module("api")

	log.WithContext(WithTraceID(context.Background(), "abc123")).Info("request")
	log.WithContext(context.Background()).Info("no trace")

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, "abc123", records[0]["trace_id"])
	assert.NotContains(t, records[1], "trace_id")
}

func TestNewCentralLoggerFileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cl, err := NewCentralLogger(&LoggingConfig{
		Console:    &ConsoleOutput{Enabled: false},
		FileOutput: &FileOutput{Enabled: true, Path: path},
	})
	require.NoError(t, err)

	cl.Module("conf").Info("loaded")
	require.NoError(t, cl.Flush())
	require.NoError(t, cl.Close())
	assert.FileExists(t, path)
}

func TestNewCentralLoggerRejectsBadTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus_Mons"})
	require.Error(t, err)

	_, err = NewCentralLogger(nil)
	require.Error(t, err)
}

func TestRedactSensitiveData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, notWant string
	}{
		{"api key assignment", "api_key=supersecretvalue", "supersecretvalue"},
		{"bearer token", "Authorization: Bearer abc.def.ghi", "abc.def.ghi"},
		{"google key", "request to ?key=AIzaSyA1234567890abcdefghijk failed", "AIzaSyA1234567890abcdefghijk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RedactSensitiveData(tt.in)
			assert.NotContains(t, got, tt.notWant)
			assert.Contains(t, got, "[REDACTED]")
		})
	}
}
