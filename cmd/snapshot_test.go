package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CristiGvl/hwsense/internal/cpu"
	"github.com/CristiGvl/hwsense/internal/gpu"
	"github.com/CristiGvl/hwsense/internal/monitor"
	"github.com/CristiGvl/hwsense/internal/pci"
)

func TestRenderCPU(t *testing.T) {
	info := cpu.ParseLscpu("Model name: UIM(R) Abacus(tm) 10\nCPU(s): 4\nCPU max MHz: 3400.0000\n")
	temp := 41.3
	snap := monitor.CPUSnapshot{
		Data:         &cpu.Data{Temperature: &temp},
		UsagePercent: 37.5,
	}

	var buf bytes.Buffer
	renderCPU(&buf, &info, snap)

	out := buf.String()
	assert.Contains(t, out, "UIM® Abacus™ 10")
	assert.Contains(t, out, "3.4 GHz")
	assert.Contains(t, out, "37.5%")
	assert.Contains(t, out, "41.3 °C")
	assert.Contains(t, out, "N/A")
}

func TestRenderThreads(t *testing.T) {
	freq := uint64(2_200_000_000)
	snap := monitor.CPUSnapshot{
		Data:               &cpu.Data{Frequencies: []*uint64{&freq, nil}},
		ThreadUsagePercent: []float64{10, 90},
	}

	var buf bytes.Buffer
	renderThreads(&buf, snap)

	out := buf.String()
	assert.Contains(t, out, "2.2 GHz")
	assert.Contains(t, out, "90.0%")
	assert.Contains(t, out, "N/A")
}

func TestRenderGPUs(t *testing.T) {
	usage := 0.57
	used, total := uint64(2<<30), uint64(8<<30)
	power := 120.0

	var buf bytes.Buffer
	renderGPUs(&buf, []monitor.GPUSnapshot{{
		Name: "Navi 21",
		Kind: gpu.KindAMD,
		Data: gpu.Data{
			PCISlot:       pci.Slot{Bus: 3},
			UsageFraction: &usage,
			UsedVRAM:      &used,
			TotalVRAM:     &total,
			PowerUsage:    &power,
		},
	}})

	out := buf.String()
	assert.Contains(t, out, "0000:03:00.0")
	assert.Contains(t, out, "57.0%")
	assert.Contains(t, out, "2.0 GiB / 8.0 GiB")
	assert.Contains(t, out, "120.0 W")
}
