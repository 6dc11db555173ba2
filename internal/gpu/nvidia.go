package gpu

import (
	"fmt"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/CristiGvl/hwsense/internal/pci"
)

// NVMLDevice is the part of an NVML device handle the NVIDIA backend reads.
// nvml.Device satisfies it.
type NVMLDevice interface {
	GetName() (string, nvml.Return)
	GetUtilizationRates() (nvml.Utilization, nvml.Return)
	GetEncoderUtilization() (uint32, uint32, nvml.Return)
	GetDecoderUtilization() (uint32, uint32, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return)
	GetPowerUsage() (uint32, nvml.Return)
	GetClockInfo(nvml.ClockType) (uint32, nvml.Return)
	GetPowerManagementLimit() (uint32, nvml.Return)
	GetPowerManagementLimitConstraints() (uint32, uint32, nvml.Return)
}

// NVML hands out device handles by PCI slot.
type NVML interface {
	DeviceBySlot(slot pci.Slot) (NVMLDevice, error)
}

// NVIDIA is a GPU driven by the proprietary or nouveau driver. Metrics come
// from NVML when it is available and fall back to sysfs otherwise.
type NVIDIA struct {
	base
	nvml NVML

	once   sync.Once
	dev    NVMLDevice
	devErr error
}

func (*NVIDIA) Kind() Kind {
	return KindNVIDIA
}

func (g *NVIDIA) handle() (NVMLDevice, error) {
	g.once.Do(func() {
		if g.nvml == nil {
			g.devErr = ErrUnsupported
			return
		}
		g.dev, g.devErr = g.nvml.DeviceBySlot(g.slot)
	})
	return g.dev, g.devErr
}

// nvmlError formats ret by code. nvml.ErrorString is only safe to call
// once the library is loaded.
func nvmlError(call string, ret nvml.Return) error {
	return fmt.Errorf("%s: nvml return code %d", call, int32(ret))
}

func (g *NVIDIA) Name() (string, error) {
	if dev, err := g.handle(); err == nil {
		if name, ret := dev.GetName(); ret == nvml.SUCCESS {
			return name, nil
		}
	}
	return g.DRMName()
}

func (g *NVIDIA) Usage() (float64, error) {
	if dev, err := g.handle(); err == nil {
		if util, ret := dev.GetUtilizationRates(); ret == nvml.SUCCESS {
			return float64(util.Gpu), nil
		}
	}
	return g.DRMUsage()
}

func (g *NVIDIA) EncodeUsage() (float64, error) {
	dev, err := g.handle()
	if err != nil {
		return 0, err
	}
	util, _, ret := dev.GetEncoderUtilization()
	if ret != nvml.SUCCESS {
		return 0, nvmlError("encoder utilization", ret)
	}
	return float64(util), nil
}

func (g *NVIDIA) DecodeUsage() (float64, error) {
	dev, err := g.handle()
	if err != nil {
		return 0, err
	}
	util, _, ret := dev.GetDecoderUtilization()
	if ret != nvml.SUCCESS {
		return 0, nvmlError("decoder utilization", ret)
	}
	return float64(util), nil
}

// CombinedMediaEngine is false: NVENC and NVDEC are separate engines.
func (g *NVIDIA) CombinedMediaEngine() (bool, error) {
	return false, nil
}

func (g *NVIDIA) UsedVRAM() (uint64, error) {
	if dev, err := g.handle(); err == nil {
		if mem, ret := dev.GetMemoryInfo(); ret == nvml.SUCCESS {
			return mem.Used, nil
		}
	}
	return g.DRMUsedVRAM()
}

func (g *NVIDIA) TotalVRAM() (uint64, error) {
	if dev, err := g.handle(); err == nil {
		if mem, ret := dev.GetMemoryInfo(); ret == nvml.SUCCESS {
			return mem.Total, nil
		}
	}
	return g.DRMTotalVRAM()
}

func (g *NVIDIA) Temperature() (float64, error) {
	if dev, err := g.handle(); err == nil {
		if temp, ret := dev.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
			return float64(temp), nil
		}
	}
	return g.HwmonTemperature()
}

func (g *NVIDIA) PowerUsage() (float64, error) {
	if dev, err := g.handle(); err == nil {
		if mw, ret := dev.GetPowerUsage(); ret == nvml.SUCCESS {
			return float64(mw) / 1000, nil
		}
	}
	return g.HwmonPowerUsage()
}

func (g *NVIDIA) CoreFrequency() (float64, error) {
	if dev, err := g.handle(); err == nil {
		if mhz, ret := dev.GetClockInfo(nvml.CLOCK_GRAPHICS); ret == nvml.SUCCESS {
			return float64(mhz) * 1_000_000, nil
		}
	}
	return g.HwmonCoreFrequency()
}

func (g *NVIDIA) VRAMFrequency() (float64, error) {
	if dev, err := g.handle(); err == nil {
		if mhz, ret := dev.GetClockInfo(nvml.CLOCK_MEM); ret == nvml.SUCCESS {
			return float64(mhz) * 1_000_000, nil
		}
	}
	return g.HwmonVRAMFrequency()
}

func (g *NVIDIA) PowerCap() (float64, error) {
	if dev, err := g.handle(); err == nil {
		if mw, ret := dev.GetPowerManagementLimit(); ret == nvml.SUCCESS {
			return float64(mw) / 1000, nil
		}
	}
	return g.HwmonPowerCap()
}

func (g *NVIDIA) PowerCapMax() (float64, error) {
	if dev, err := g.handle(); err == nil {
		if _, mw, ret := dev.GetPowerManagementLimitConstraints(); ret == nvml.SUCCESS {
			return float64(mw) / 1000, nil
		}
	}
	return g.HwmonPowerCapMax()
}
