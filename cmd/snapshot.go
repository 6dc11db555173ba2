package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/CristiGvl/hwsense/internal/cpu"
	"github.com/CristiGvl/hwsense/internal/monitor"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print one CPU and GPU sample",
	Long: `Samples the hardware twice, one interval apart, and prints the CPU
identity, per thread usage and every GPU as tables.`,
	RunE: runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mon := monitor.New(ctx, cfg)
	mon.Poll()

	select {
	case <-time.After(cfg.Poll.Interval):
	case <-ctx.Done():
		return ctx.Err()
	}
	mon.Poll()

	snap := mon.Snapshot()
	w := cmd.OutOrStdout()

	renderCPU(w, mon.CPUInfo(), snap.CPU)
	fmt.Fprintln(w)
	renderThreads(w, snap.CPU)
	fmt.Fprintln(w)
	renderGPUs(w, snap.GPUs)

	return nil
}

func setupTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)

	return table
}

func renderCPU(w io.Writer, info *cpu.Info, snap monitor.CPUSnapshot) {
	table := setupTable(w, "CPU", "Architecture", "Threads", "Cores", "Sockets", "Virtualization", "Max Speed", "Usage", "Temperature")

	var temp *float64
	if snap.Data != nil {
		temp = snap.Temperature
	}

	table.Append([]string{
		orNA(info.ModelName),
		orNA(info.Architecture),
		intOrNA(info.LogicalCPUs),
		intOrNA(info.PhysicalCPUs),
		intOrNA(info.Sockets),
		orNA(info.Virtualization),
		hzOrNA(info.MaxSpeed),
		percent(snap.UsagePercent),
		celsiusOrNA(temp),
	})
	table.Render()
}

func renderThreads(w io.Writer, snap monitor.CPUSnapshot) {
	table := setupTable(w, "Thread", "Usage", "Frequency")

	for i, usage := range snap.ThreadUsagePercent {
		freq := "N/A"
		if snap.Data != nil && i < len(snap.Frequencies) && snap.Frequencies[i] != nil {
			freq = hz(float64(*snap.Frequencies[i]))
		}
		table.Append([]string{strconv.Itoa(i), percent(usage), freq})
	}
	table.Render()
}

func renderGPUs(w io.Writer, gpus []monitor.GPUSnapshot) {
	table := setupTable(w, "PCI Slot", "GPU", "Category", "Usage", "VRAM", "Clock", "Temperature", "Power")

	for _, g := range gpus {
		name := g.Name
		if name == "" {
			name = "N/A"
		}
		table.Append([]string{
			g.PCISlot.String(),
			name,
			string(g.Kind),
			fractionOrNA(g.UsageFraction),
			vram(g.UsedVRAM, g.TotalVRAM),
			hzOrNA(g.ClockSpeed),
			celsiusOrNA(g.Temperature),
			wattsOrNA(g.PowerUsage, g.PowerCap),
		})
	}
	table.Render()
}

func orNA(s *string) string {
	if s == nil {
		return "N/A"
	}
	return *s
}

func intOrNA(n *int) string {
	if n == nil {
		return "N/A"
	}
	return strconv.Itoa(*n)
}

func hz(v float64) string {
	return humanize.SIWithDigits(v, 2, "Hz")
}

func hzOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return hz(*v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func fractionOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return percent(*v * 100)
}

func celsiusOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f °C", *v)
}

func vram(used, total *uint64) string {
	switch {
	case used != nil && total != nil:
		return humanize.IBytes(*used) + " / " + humanize.IBytes(*total)
	case total != nil:
		return "N/A / " + humanize.IBytes(*total)
	default:
		return "N/A"
	}
}

func wattsOrNA(usage, powerCap *float64) string {
	if usage == nil {
		return "N/A"
	}
	if powerCap == nil {
		return fmt.Sprintf("%.1f W", *usage)
	}
	return fmt.Sprintf("%.1f / %.1f W", *usage, *powerCap)
}
