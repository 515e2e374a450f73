package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	logger, err := New(Config{Level: "warn", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.String("url", "http://example.com/"))
	require.NoError(t, logger.Sync())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "dropped")
	assert.Contains(t, string(out), `"message":"kept"`)
	assert.Contains(t, string(out), `"url":"http://example.com/"`)
}

func TestNewRejectsLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	assert.True(t, NewDefault().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, NewDefault().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, NewDevelopment().Core().Enabled(zapcore.DebugLevel))
}
