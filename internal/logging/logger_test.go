package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWithOptions_FileAndJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")

	logger, closer, err := NewWithOptions(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	logger.Info("invocation finished", "error", "boom")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"invocation finished"`)
	assert.Contains(t, string(data), `"err":"boom"`, "error key is rewritten to err")
}

func TestNewWithOptions_RejectsUnknownFormat(t *testing.T) {
	_, _, err := NewWithOptions(Options{Format: "xml"})
	assert.Error(t, err)
}
