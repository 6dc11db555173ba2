package cpu

import (
	"errors"
	"path"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/CristiGvl/hwsense/internal/sysfs"
)

// ErrNoSensor is returned when no known temperature sensor exists.
var ErrNoSensor = errors.New("no sensor for CPU temperature found")

// Sensor names in priority order.
var (
	KnownHwmons       = []string{"zenpower", "coretemp", "k10temp"}
	KnownThermalZones = []string{"x86_pkg_temp", "acpitz"}
)

// Locator finds the CPU package temperature file once and remembers the
// result, including a failed search, for its lifetime.
type Locator struct {
	fs      afero.Fs
	sysRoot string

	once   sync.Once
	sensor string
	path   string
}

// NewLocator returns a locator searching below sysRoot on fs.
func NewLocator(fs afero.Fs, sysRoot string) *Locator {
	return &Locator{fs: fs, sysRoot: sysRoot}
}

var (
	sharedMu       sync.Mutex
	sharedLocators = map[string]*Locator{}
)

// SharedLocator returns the process-wide locator for sysRoot on the real
// filesystem.
func SharedLocator(sysRoot string) *Locator {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	l, ok := sharedLocators[sysRoot]
	if !ok {
		l = NewLocator(sysfs.OsFs(), sysRoot)
		sharedLocators[sysRoot] = l
	}
	return l
}

// Path returns the temperature file and the name of the sensor it belongs
// to. The filesystem is searched on the first call only.
func (l *Locator) Path() (file, sensor string, err error) {
	l.once.Do(l.locate)
	if l.path == "" {
		return "", "", ErrNoSensor
	}
	return l.path, l.sensor, nil
}

func (l *Locator) locate() {
	sensor, file, ok := l.search(path.Join(l.sysRoot, "class/hwmon/hwmon*"), "name", "temp1_input", KnownHwmons)
	if !ok {
		sensor, file, ok = l.search(path.Join(l.sysRoot, "class/thermal/thermal_zone*"), "type", "temp", KnownThermalZones)
	}
	if !ok {
		zlog.Warn("No sensor for CPU temperature found")
		return
	}

	zlog.Debug("CPU temperature sensor located", zap.String("path", file), zap.String("sensor", sensor))
	l.sensor, l.path = sensor, file
}

// search walks names in priority order and returns the first directory
// matching pattern whose label file equals the name.
func (l *Locator) search(pattern, label, value string, names []string) (string, string, bool) {
	dirs, err := afero.Glob(l.fs, pattern)
	if err != nil || len(dirs) == 0 {
		return "", "", false
	}

	labels := make([]string, len(dirs))
	for i, dir := range dirs {
		// unreadable entries simply never match
		s, _ := sysfs.ReadString(l.fs, path.Join(dir, label))
		labels[i] = strings.TrimSpace(s)
	}

	for _, name := range names {
		for i, dir := range dirs {
			if labels[i] == name {
				return name, path.Join(dir, value), true
			}
		}
	}
	return "", "", false
}
