package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelab/quire/internal/config"
)

func TestNewLogger_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LoggingConfig{
		Level:  "info",
		Format: "text",
		Dir:    dir,
		Console: config.ConsoleConfig{
			Enabled: false,
		},
		File: config.FileConfig{
			Enabled: true,
			Level:   "info",
			Format:  "json",
		},
		Rotation: config.RotationConfig{MaxSize: 1, MaxBackups: 1, MaxAge: 1},
	}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("hello", "k", "v")
	logger.Error("broken", "k", "v")
	require.NoError(t, Shutdown())

	mainData, err := os.ReadFile(filepath.Join(dir, "quire.log"))
	require.NoError(t, err)
	assert.Contains(t, string(mainData), "hello")
	assert.Contains(t, string(mainData), "broken")

	errData, err := os.ReadFile(filepath.Join(dir, "errors.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(errData), "hello")
	assert.Contains(t, string(errData), "broken")
}

func TestNewLogger_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := NewLogger(config.LoggingConfig{Dir: filepath.Join(file, "nested")})
	assert.Error(t, err)
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h)

	logger.Debug("quiet")
	logger.Error("loud")

	assert.Contains(t, a.String(), "quiet")
	assert.Contains(t, a.String(), "loud")
	assert.NotContains(t, b.String(), "quiet")
	assert.Contains(t, b.String(), "loud")
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&buf, nil)).WithAttrs([]slog.Attr{slog.String("svc", "quire")})

	logger := slog.New(h)
	logger.Info("tagged")
	assert.Contains(t, buf.String(), "svc=quire")
}

func TestLevelFilter_DropsBelowMin(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := NewLevelFilter(inner, slog.LevelWarn)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	logger := slog.New(h)
	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
