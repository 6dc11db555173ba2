// Package cpu samples processor identity, time counters, temperature and
// clock speed from lscpu, /proc and /sys.
package cpu

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/afero"

	"github.com/CristiGvl/hwsense/internal/logger"
	"github.com/CristiGvl/hwsense/internal/sysfs"
)

var zlog = logger.New("cpu")

var (
	// ErrCoreOutOfRange is returned when a core index has no /proc/stat line.
	ErrCoreOutOfRange = errors.New("core index greater than amount of cores")
	// ErrEncoding is returned when lscpu output is not valid UTF-8.
	ErrEncoding = errors.New("unable to parse lscpu output to UTF-8")
)

// ExecError wraps a failure to run an external command.
type ExecError struct {
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("unable to run %s: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Info represents static CPU identity as reported by lscpu. Every field is
// optional; nil means lscpu did not report it or it did not parse.
type Info struct {
	ModelName      *string  `json:"model_name,omitempty"`
	Architecture   *string  `json:"architecture,omitempty"`
	LogicalCPUs    *int     `json:"logical_cpus,omitempty"`
	PhysicalCPUs   *int     `json:"physical_cpus,omitempty"`
	Sockets        *int     `json:"sockets,omitempty"`
	Virtualization *string  `json:"virtualization,omitempty"`
	MaxSpeed       *float64 `json:"max_speed_hz,omitempty"`
}

// Usage is a cumulative CPU time sample in USER_HZ ticks since boot.
// Callers diff two samples to get a utilization ratio.
type Usage struct {
	Idle  uint64 `json:"idle"`
	Total uint64 `json:"total"`
}

// Data is one dynamic CPU sample.
type Data struct {
	TotalUsage   Usage     `json:"total_usage"`
	ThreadUsages []Usage   `json:"thread_usages"`
	Temperature  *float64  `json:"temperature_celsius,omitempty"`
	Frequencies  []*uint64 `json:"frequencies_hz"`

	// TemperatureErr says why Temperature is nil.
	TemperatureErr error `json:"-"`
}

// Reader interface for CPU monitoring
type Reader interface {
	// GetInfo runs lscpu and parses its output.
	GetInfo(ctx context.Context) (*Info, error)
	// GetTotalUsage returns the aggregate time counters of all cores.
	GetTotalUsage() (Usage, error)
	// GetCoreUsage returns the time counters of one logical core.
	GetCoreUsage(core int) (Usage, error)
	// GetFrequency returns the current clock of one logical core in Hz.
	GetFrequency(core int) (uint64, error)
	// GetTemperature returns the package temperature in °C.
	GetTemperature() (float64, error)
	// GetData assembles one sample for logicalCPUs cores. It never fails;
	// unavailable values are left empty.
	GetData(logicalCPUs int) *Data
}

// CommandRunner abstracts running lscpu so tests can feed canned output.
type CommandRunner interface {
	Output(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(cmd.Environ(), env...)
	return cmd.Output()
}

type options struct {
	fs       afero.Fs
	sysRoot  string
	procRoot string
	runner   CommandRunner
	locator  *Locator
}

// Option configures a Reader.
type Option func(*options)

// WithFs reads every sysfs and procfs file through fs instead of the OS.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithSysRoot sets the sysfs mount point, "/sys" by default.
func WithSysRoot(root string) Option {
	return func(o *options) {
		o.sysRoot = root
	}
}

// WithProcRoot sets the procfs mount point, "/proc" by default.
func WithProcRoot(root string) Option {
	return func(o *options) {
		o.procRoot = root
	}
}

// WithRunner replaces the runner used to invoke lscpu.
func WithRunner(r CommandRunner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithLocator makes the reader use l for temperature sensor lookups.
func WithLocator(l *Locator) Option {
	return func(o *options) {
		o.locator = l
	}
}

// NewReader creates a new CPU reader for the current platform
func NewReader(opts ...Option) Reader {
	o := options{
		sysRoot:  "/sys",
		procRoot: "/proc",
		runner:   execRunner{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.locator == nil {
		if o.fs == nil {
			o.locator = SharedLocator(o.sysRoot)
		} else {
			o.locator = NewLocator(o.fs, o.sysRoot)
		}
	}
	if o.fs == nil {
		o.fs = sysfs.OsFs()
	}

	return newPlatformReader(o)
}
