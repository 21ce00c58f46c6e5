package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_TextRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("license_found", "path", "/x")
	logger.Warn("payload_missing", "path", "/installer/PawnPlugin64.dll")

	out := buf.String()
	assert.NotContains(t, out, "license_found")
	assert.Contains(t, out, "msg=payload_missing")
	assert.Contains(t, out, "path=/installer/PawnPlugin64.dll")
}

func TestInit_WritesLogFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "install.log")
	closer, err := Init("info", path)
	require.NoError(t, err)

	slog.Info("install_start", "run_id", "abc")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "install_start")
	assert.Contains(t, string(data), "run_id=abc")
}
