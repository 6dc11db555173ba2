//go:build linux

package cpu

import (
	"context"
	"fmt"
	"path"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/CristiGvl/hwsense/internal/sysfs"
)

// LinuxReader implements CPU monitoring for Linux
type LinuxReader struct {
	fs       afero.Fs
	sysRoot  string
	procRoot string
	runner   CommandRunner
	locator  *Locator
}

// newPlatformReader creates a new Linux CPU reader
func newPlatformReader(o options) Reader {
	return &LinuxReader{
		fs:       o.fs,
		sysRoot:  o.sysRoot,
		procRoot: o.procRoot,
		runner:   o.runner,
		locator:  o.locator,
	}
}

// GetInfo returns CPU information
func (r *LinuxReader) GetInfo(ctx context.Context) (*Info, error) {
	out, err := r.runner.Output(ctx, []string{"LC_ALL=C"}, "lscpu")
	if err != nil {
		return nil, &ExecError{Command: "lscpu", Err: err}
	}
	if !utf8.Valid(out) {
		return nil, ErrEncoding
	}

	info := ParseLscpu(string(out))
	return &info, nil
}

// GetTotalUsage returns the aggregate "cpu" line of /proc/stat
func (r *LinuxReader) GetTotalUsage() (Usage, error) {
	lines, err := r.statLines()
	if err != nil {
		return Usage{}, err
	}
	return r.usageAt(lines, 0)
}

// GetCoreUsage returns the "cpuN" line of /proc/stat for core
func (r *LinuxReader) GetCoreUsage(core int) (Usage, error) {
	if core < 0 {
		return Usage{}, ErrCoreOutOfRange
	}
	lines, err := r.statLines()
	if err != nil {
		return Usage{}, err
	}
	return r.usageAt(lines, core+1)
}

// GetFrequency returns the current clock of core in Hz
func (r *LinuxReader) GetFrequency(core int) (uint64, error) {
	file := path.Join(r.sysRoot, fmt.Sprintf("devices/system/cpu/cpu%d/cpufreq/scaling_cur_freq", core))
	khz, err := sysfs.ReadUint(r.fs, file)
	if err != nil {
		return 0, fmt.Errorf("unable to read scaling_cur_freq for core %d: %w", core, err)
	}
	return khz * 1000, nil
}

// GetTemperature returns the CPU package temperature in °C
func (r *LinuxReader) GetTemperature() (float64, error) {
	file, _, err := r.locator.Path()
	if err != nil {
		return 0, err
	}
	milli, err := sysfs.ReadFloat(r.fs, file)
	if err != nil {
		return 0, err
	}
	return milli / 1000, nil
}

// GetData reads /proc/stat once and samples every core. Failed core
// counters are reported as zero, failed frequencies as nil.
func (r *LinuxReader) GetData(logicalCPUs int) *Data {
	logicalCPUs = max(logicalCPUs, 0)
	data := &Data{
		ThreadUsages: make([]Usage, logicalCPUs),
		Frequencies:  make([]*uint64, logicalCPUs),
	}

	lines, err := r.statLines()
	if err != nil {
		zlog.Debug("Unable to read /proc/stat", zap.Error(err))
	} else {
		data.TotalUsage, _ = r.usageAt(lines, 0)
		for i := range data.ThreadUsages {
			data.ThreadUsages[i], _ = r.usageAt(lines, i+1)
		}
	}

	for i := range data.Frequencies {
		if hz, err := r.GetFrequency(i); err == nil {
			data.Frequencies[i] = &hz
		}
	}

	if temp, err := r.GetTemperature(); err == nil {
		data.Temperature = &temp
	} else {
		data.TemperatureErr = err
	}

	return data
}

func (r *LinuxReader) statPath() string {
	return path.Join(r.procRoot, "stat")
}

func (r *LinuxReader) statLines() ([]string, error) {
	stat, err := sysfs.ReadString(r.fs, r.statPath())
	if err != nil {
		return nil, err
	}
	return cpuLines(stat), nil
}

func (r *LinuxReader) usageAt(lines []string, n int) (Usage, error) {
	if n >= len(lines) {
		return Usage{}, ErrCoreOutOfRange
	}
	u, err := ParseProcStatLine(lines[n])
	if err != nil {
		return Usage{}, &sysfs.ParseError{Path: r.statPath(), Err: err}
	}
	return u, nil
}
