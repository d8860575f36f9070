package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level LogLevel) *TildeLogger {
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LevelWarn)
	ctx := context.Background()

	l.Debug(ctx, "hidden")
	l.Info(ctx, "hidden")
	l.Warn(ctx, nil, "shown")
	l.Error(ctx, errors.New("boom"), "failed", "path", "a.html")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "failed", recs[1]["msg"])
	assert.Equal(t, "boom", recs[1]["error"])
	assert.Equal(t, "a.html", recs[1]["path"])
}

func TestLogger_FieldsAndComponent(t *testing.T) {
	var buf bytes.Buffer
	base := jsonLogger(&buf, LevelDebug)
	l := base.With("template", "page.html").WithComponent("render")
	l.Info(context.Background(), "rendered", "bytes", 12, "dangling")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "render", recs[0]["component"])
	assert.Equal(t, "page.html", recs[0]["template"])
	assert.Equal(t, float64(12), recs[0]["bytes"])
	assert.NotContains(t, recs[0], "dangling")

	buf.Reset()
	base.Info(context.Background(), "plain")
	recs = decodeLines(t, &buf)
	assert.NotContains(t, recs[0], "template", "With must not modify the parent")
}

func TestLogger_RunIDAndSlog(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LevelDebug).WithRunID("run-1")
	sl := l.WithComponent("cache").Slog()
	sl.Debug("parsed template", "path", "x.html")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "run-1", recs[0]["run_id"])
	assert.Equal(t, "cache", recs[0]["component"])
	assert.Equal(t, "x.html", recs[0]["path"])
}

func TestLogger_Slog_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, LevelInfo).Slog().Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestPerfLogger(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LevelDebug)
	ctx := context.Background()

	l.StartOperation("render").End(ctx, "bytes", 3)
	l.StartOperation("parse").EndWithError(ctx, errors.New("bad tag"))

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "render", recs[0]["operation"])
	assert.Contains(t, recs[0], "duration_ms")
	assert.Equal(t, float64(3), recs[0]["bytes"])
	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Equal(t, "bad tag", recs[1]["error"])
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Error(context.Background(), errors.New("x"), "dropped")
	})
}
