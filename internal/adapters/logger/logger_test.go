package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer with colors disabled.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		goldenName string
	}{
		{name: "simple message", msg: "building yasm", goldenName: "info_basic"},
		{name: "multiline message", msg: "line1\nline2", goldenName: "info_multiline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Info(tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("skipping ffmpeg-msys2-deps on linux")

	g := goldie.New(t)
	g.Assert(t, "warn_basic", buf.Bytes())
}

func TestLogger_Error(t *testing.T) {
	t.Run("nil error writes nothing", func(t *testing.T) {
		lg, buf := newTestLogger(t)
		lg.Error(nil)
		assert.Empty(t, buf.String())
	})

	t.Run("standard error", func(t *testing.T) {
		lg, buf := newTestLogger(t)
		lg.Error(errors.New("boom"))
		assert.Equal(t, "✗ Error: boom\n", buf.String())
	})

	t.Run("zerr chain with metadata", func(t *testing.T) {
		lg, buf := newTestLogger(t)

		cause := errors.New("connection refused")
		err := zerr.With(zerr.Wrap(cause, "download failed"), "url", "http://example.com/yasm.tar.gz")
		lg.Error(err)

		out := buf.String()
		assert.Contains(t, out, "Error: download failed")
		assert.Contains(t, out, "url: http://example.com/yasm.tar.gz")
		assert.Contains(t, out, "Caused by:")
		assert.Contains(t, out, "→ connection refused")
	})
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "INFO", record["level"])
}

func TestLogger_SetOutputNilFallsBackToStderr(t *testing.T) {
	lg := logger.New()
	assert.NotPanics(t, func() {
		lg.SetOutput(nil)
	})
}
