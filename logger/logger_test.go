package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger_File(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	path := filepath.Join(t.TempDir(), "wayback.log")
	require.NoError(t, InitLogger(false, path))

	zap.S().Infow("logger ready", "target", "example.com")
	zap.S().Debugw("hidden at info level")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logger ready")
	assert.Contains(t, string(data), `"target":"example.com"`)
	assert.NotContains(t, string(data), "hidden at info level")
}

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, Level(true))
	assert.Equal(t, zapcore.InfoLevel, Level(false))
}
