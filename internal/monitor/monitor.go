// Package monitor polls the CPU and GPU samplers on a schedule and keeps the
// latest snapshot for readers.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	psCPU "github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"

	"github.com/CristiGvl/hwsense/internal/config"
	"github.com/CristiGvl/hwsense/internal/cpu"
	"github.com/CristiGvl/hwsense/internal/gpu"
	"github.com/CristiGvl/hwsense/internal/logger"
)

var zlog = logger.New("monitor")

// CPUSnapshot is a CPU sample together with the utilization since the
// previous one.
type CPUSnapshot struct {
	*cpu.Data
	UsagePercent       float64   `json:"usage_percent"`
	ThreadUsagePercent []float64 `json:"thread_usage_percent"`
}

// GPUSnapshot is one GPU sample.
type GPUSnapshot struct {
	Name string   `json:"name,omitempty"`
	Kind gpu.Kind `json:"kind"`
	gpu.Data
}

// Snapshot is everything sampled in one poll.
type Snapshot struct {
	Time time.Time     `json:"time"`
	CPU  CPUSnapshot   `json:"cpu"`
	GPUs []GPUSnapshot `json:"gpus"`
}

// Monitor samples the CPU and every GPU on each tick.
type Monitor struct {
	reader      cpu.Reader
	info        *cpu.Info
	logicalCPUs int
	gpus        []gpu.GPU
	interval    time.Duration
	cron        *cron.Cron
	polls       atomic.Uint64

	mu          sync.RWMutex
	snapshot    Snapshot
	committed   uint64
	prevTotal   cpu.Usage
	prevThreads []cpu.Usage
}

// New reads the static CPU info, discovers GPUs below the configured roots
// and returns a monitor that has not started polling yet.
func New(ctx context.Context, cfg *config.Config) *Monitor {
	reader := cpu.NewReader(cpu.WithSysRoot(cfg.Sysfs.Root), cpu.WithProcRoot(cfg.Procfs.Root))

	info, err := reader.GetInfo(ctx)
	if err != nil {
		zlog.Warn("Unable to read CPU info", zap.Error(err))
		info = &cpu.Info{}
	}

	gpus, err := gpu.Discover(gpu.WithSysRoot(cfg.Sysfs.Root))
	if err != nil {
		zlog.Debug("Some DRM cards were skipped", zap.Error(err))
	}

	return newMonitor(reader, info, LogicalCPUs(ctx, info), gpus, cfg.Poll.Interval)
}

func newMonitor(reader cpu.Reader, info *cpu.Info, logicalCPUs int, gpus []gpu.GPU, interval time.Duration) *Monitor {
	return &Monitor{
		reader:      reader,
		info:        info,
		logicalCPUs: logicalCPUs,
		gpus:        gpus,
		interval:    interval,
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{zlog.Sugar()}))),
	}
}

// cronLogger routes the scheduler's own messages to zap.
type cronLogger struct {
	*zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Errorw(msg, append(keysAndValues, "error", err)...)
}

// LogicalCPUs returns the logical CPU count from lscpu, or from gopsutil
// when lscpu did not report it.
func LogicalCPUs(ctx context.Context, info *cpu.Info) int {
	if info != nil && info.LogicalCPUs != nil {
		return *info.LogicalCPUs
	}
	n, err := psCPU.CountsWithContext(ctx, true)
	if err != nil {
		zlog.Warn("Unable to count logical CPUs", zap.Error(err))
		return 0
	}
	return n
}

// Start takes a first sample and schedules the following ones.
func (m *Monitor) Start() error {
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", m.interval), m.Poll); err != nil {
		return fmt.Errorf("failed to schedule poll: %w", err)
	}
	m.Poll()
	m.cron.Start()
	zlog.Info("Monitor started", zap.Duration("interval", m.interval), zap.Int("gpus", len(m.gpus)))
	return nil
}

// Stop halts polling. The returned context is done once a running poll
// finished.
func (m *Monitor) Stop() context.Context {
	return m.cron.Stop()
}

// Poll samples the CPU and all GPUs and replaces the snapshot. A poll that
// finishes after a later one was already committed is discarded.
func (m *Monitor) Poll() {
	seq := m.polls.Add(1)
	data := m.reader.GetData(m.logicalCPUs)
	if data.TemperatureErr != nil {
		zlog.Debug("CPU temperature unavailable", zap.Error(data.TemperatureErr))
	}

	gpus := make([]GPUSnapshot, len(m.gpus))
	var wg sync.WaitGroup
	for i, g := range m.gpus {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gpus[i] = sampleGPU(g)
		}()
	}
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq < m.committed {
		zlog.Debug("Dropping stale sample", zap.Uint64("poll", seq), zap.Uint64("committed", m.committed))
		return
	}

	snap := Snapshot{
		Time: time.Now(),
		CPU: CPUSnapshot{
			Data:               data,
			UsagePercent:       UsagePercent(m.prevTotal, data.TotalUsage),
			ThreadUsagePercent: make([]float64, len(data.ThreadUsages)),
		},
		GPUs: gpus,
	}
	for i, u := range data.ThreadUsages {
		if i < len(m.prevThreads) {
			snap.CPU.ThreadUsagePercent[i] = UsagePercent(m.prevThreads[i], u)
		}
	}

	m.committed = seq
	m.prevTotal = data.TotalUsage
	m.prevThreads = data.ThreadUsages
	m.snapshot = snap
}

func sampleGPU(g gpu.GPU) GPUSnapshot {
	name, _ := g.Name()
	return GPUSnapshot{
		Name: name,
		Kind: g.Kind(),
		Data: gpu.NewData(g),
	}
}

// Snapshot returns the latest sample. Before the first poll it is the zero
// Snapshot.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// CPUInfo returns the CPU identity read at construction.
func (m *Monitor) CPUInfo() *cpu.Info {
	return m.info
}

// GPUs returns the discovered GPUs.
func (m *Monitor) GPUs() []gpu.GPU {
	return m.gpus
}

// UsagePercent returns the busy share of the time between two samples in
// percent. It is 0 when no time elapsed or the counters went backwards.
func UsagePercent(prev, cur cpu.Usage) float64 {
	if cur.Total <= prev.Total || cur.Idle < prev.Idle {
		return 0
	}
	total := float64(cur.Total - prev.Total)
	idle := float64(cur.Idle - prev.Idle)
	return min(max((1-idle/total)*100, 0), 100)
}
