// Package gpu discovers graphics adapters under the DRM sysfs class and
// samples them through a common capability set.
//
// Every adapter is one of four vendor types: *AMD, *NVIDIA, *Intel or
// *Other. They share the DRM and hwmon readers of an embedded base and
// override the metrics their driver exposes differently.
package gpu

import (
	"errors"

	"github.com/CristiGvl/hwsense/internal/logger"
	"github.com/CristiGvl/hwsense/internal/pci"
)

var zlog = logger.New("gpu")

// PCI vendor IDs used for dispatch.
const (
	VIDAMD    uint16 = 4098
	VIDIntel  uint16 = 32902
	VIDNVIDIA uint16 = 4318
)

var (
	// ErrNoHwmon is returned by hwmon reads on a card without a hwmon directory.
	ErrNoHwmon = errors.New("no hwmon found")
	// ErrNoDevice is returned when the PCI database has no record for the card.
	ErrNoDevice = errors.New("no device")
	// ErrNotGPU is returned for cards bound to the simple-framebuffer driver.
	ErrNotGPU = errors.New("this is a simple framebuffer")
	// ErrUnsupported is returned when neither the driver nor sysfs exposes a metric.
	ErrUnsupported = errors.New("not supported by this driver")
)

// Kind names the vendor category of a GPU.
type Kind string

const (
	KindAMD    Kind = "AMD"
	KindNVIDIA Kind = "NVIDIA"
	KindIntel  Kind = "Intel"
	KindOther  Kind = "Other"
)

// Capabilities is the set of identity and metric accessors every GPU
// provides. Each metric fails on its own.
type Capabilities interface {
	Device() *pci.Device
	PCISlot() pci.Slot
	Driver() string
	SysfsPath() string
	FirstHwmon() (string, bool)

	Name() (string, error)
	// Usage, EncodeUsage and DecodeUsage are percentages.
	Usage() (float64, error)
	EncodeUsage() (float64, error)
	DecodeUsage() (float64, error)
	// CombinedMediaEngine reports whether encode and decode share one engine.
	CombinedMediaEngine() (bool, error)
	UsedVRAM() (uint64, error)
	TotalVRAM() (uint64, error)
	Temperature() (float64, error)
	PowerUsage() (float64, error)
	CoreFrequency() (float64, error)
	VRAMFrequency() (float64, error)
	PowerCap() (float64, error)
	PowerCapMax() (float64, error)
}

// GPU is a discovered adapter. Only the vendor types of this package
// implement it.
type GPU interface {
	Capabilities
	Kind() Kind
	sealed()
}

// Vendor returns the PCI vendor record of g.
func Vendor(g GPU) (*pci.Vendor, error) {
	d := g.Device()
	if d == nil || d.Vendor == nil {
		return nil, ErrNoDevice
	}
	return d.Vendor, nil
}
