package cpu

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLocatorPrefersPriorityOverEnumeration(t *testing.T) {
	for _, order := range [][2]string{{"coretemp", "zenpower"}, {"zenpower", "coretemp"}} {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/sys/class/hwmon/hwmon0/name", order[0]+"\n")
		writeFile(t, fs, "/sys/class/hwmon/hwmon1/name", order[1]+"\n")

		file, sensor, err := NewLocator(fs, "/sys").Path()
		require.NoError(t, err)
		assert.Equal(t, "zenpower", sensor)

		want := "/sys/class/hwmon/hwmon0/temp1_input"
		if order[1] == "zenpower" {
			want = "/sys/class/hwmon/hwmon1/temp1_input"
		}
		assert.Equal(t, want, file)
	}
}

func TestLocatorFallsBackToThermalZones(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/sys/class/hwmon/hwmon0/name", "nvme\n")
	writeFile(t, fs, "/sys/class/thermal/thermal_zone0/type", "acpitz\n")
	writeFile(t, fs, "/sys/class/thermal/thermal_zone1/type", "x86_pkg_temp\n")

	file, sensor, err := NewLocator(fs, "/sys").Path()
	require.NoError(t, err)
	assert.Equal(t, "x86_pkg_temp", sensor)
	assert.Equal(t, "/sys/class/thermal/thermal_zone1/temp", file)
}

func TestLocatorNoSensor(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/sys/class/hwmon/hwmon0/name", "acpi_fan\n")

	_, _, err := NewLocator(fs, "/sys").Path()
	assert.ErrorIs(t, err, ErrNoSensor)
}

func TestLocatorCachesFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := NewLocator(fs, "/sys")

	_, _, err := l.Path()
	require.ErrorIs(t, err, ErrNoSensor)

	writeFile(t, fs, "/sys/class/hwmon/hwmon0/name", "k10temp\n")
	_, _, err = l.Path()
	assert.ErrorIs(t, err, ErrNoSensor)
}

func TestSharedLocatorIsPerRoot(t *testing.T) {
	assert.Same(t, SharedLocator("/sys"), SharedLocator("/sys"))
	assert.NotSame(t, SharedLocator("/sys"), SharedLocator("/host/sys"))
}

// countingFs counts opens of hwmon name files.
type countingFs struct {
	afero.Fs
	names atomic.Int32
}

func (c *countingFs) count(name string) {
	if filepath.Base(name) == "name" {
		c.names.Add(1)
	}
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.count(name)
	return c.Fs.Open(name)
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	c.count(name)
	return c.Fs.OpenFile(name, flag, perm)
}

func TestLocatorConcurrentFirstUse(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeFile(t, mem, "/sys/class/hwmon/hwmon0/name", "nvme\n")
	writeFile(t, mem, "/sys/class/hwmon/hwmon1/name", "k10temp\n")
	writeFile(t, mem, "/sys/class/hwmon/hwmon2/name", "amdgpu\n")
	fs := &countingFs{Fs: mem}
	l := NewLocator(fs, "/sys")

	const callers = 32
	files := make([]string, callers)
	sensors := make([]string, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			file, sensor, err := l.Path()
			assert.NoError(t, err)
			files[i], sensors[i] = file, sensor
		}()
	}
	close(start)
	wg.Wait()

	for i := range callers {
		assert.Equal(t, "/sys/class/hwmon/hwmon1/temp1_input", files[i])
		assert.Equal(t, "k10temp", sensors[i])
	}
	assert.EqualValues(t, 3, fs.names.Load())
}
