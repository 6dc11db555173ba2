package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.False(t, cfg.General.Debug)
	assert.Equal(t, "0.0.0.0:8080", cfg.Rest.Address)
	assert.Equal(t, "/sys", cfg.Sysfs.Root)
	assert.Equal(t, "/proc", cfg.Procfs.Root)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("HWSENSE_SYSFS_ROOT", "/host/sys")
	t.Setenv("HWSENSE_POLL_INTERVAL", "5s")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/host/sys", cfg.Sysfs.Root)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
}

func TestLoadFlagsWin(t *testing.T) {
	t.Setenv("HWSENSE_REST_ADDRESS", "127.0.0.1:1")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("address", "", "")
	fs.Bool("debug", false, "")
	require.NoError(t, fs.Parse([]string{"--address", "127.0.0.1:9090", "--debug"}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Rest.Address)
	assert.True(t, cfg.General.Debug)
}

func TestLoadRejectsShortInterval(t *testing.T) {
	t.Setenv("HWSENSE_POLL_INTERVAL", "100ms")

	_, err := Load(nil)
	assert.Error(t, err)
}
