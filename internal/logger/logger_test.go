package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetDebug(t *testing.T) {
	l := New("test")
	t.Cleanup(func() { SetDebug(false) })

	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))

	SetDebug(true)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	SetDebug(false)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestModeReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MODE=development\n"), 0o644))
	t.Chdir(dir)

	t.Setenv("MODE", "")
	require.NoError(t, os.Unsetenv("MODE"))
	assert.Equal(t, "development", mode())

	t.Setenv("MODE", "production")
	assert.Equal(t, "production", mode())
}
