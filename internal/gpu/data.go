package gpu

import (
	"github.com/CristiGvl/hwsense/internal/pci"
)

// Data is one GPU sample. Metrics that could not be read are nil.
type Data struct {
	PCISlot pci.Slot `json:"pci_slot"`

	UsageFraction  *float64 `json:"usage_fraction,omitempty"`
	EncodeFraction *float64 `json:"encode_fraction,omitempty"`
	DecodeFraction *float64 `json:"decode_fraction,omitempty"`

	TotalVRAM *uint64 `json:"total_vram_bytes,omitempty"`
	UsedVRAM  *uint64 `json:"used_vram_bytes,omitempty"`

	ClockSpeed *float64 `json:"clock_speed_hz,omitempty"`
	VRAMSpeed  *float64 `json:"vram_speed_hz,omitempty"`

	Temperature *float64 `json:"temperature_celsius,omitempty"`

	PowerUsage  *float64 `json:"power_usage_watts,omitempty"`
	PowerCap    *float64 `json:"power_cap_watts,omitempty"`
	PowerCapMax *float64 `json:"power_cap_max_watts,omitempty"`

	Nvidia bool `json:"nvidia"`
}

// NewData samples every metric of g on its own.
func NewData(g GPU) Data {
	_, nvidia := g.(*NVIDIA)

	return Data{
		PCISlot:        g.PCISlot(),
		UsageFraction:  fraction(g.Usage()),
		EncodeFraction: fraction(g.EncodeUsage()),
		DecodeFraction: fraction(g.DecodeUsage()),
		TotalVRAM:      value[uint64](g.TotalVRAM()),
		UsedVRAM:       value[uint64](g.UsedVRAM()),
		ClockSpeed:     value[float64](g.CoreFrequency()),
		VRAMSpeed:      value[float64](g.VRAMFrequency()),
		Temperature:    value[float64](g.Temperature()),
		PowerUsage:     value[float64](g.PowerUsage()),
		PowerCap:       value[float64](g.PowerCap()),
		PowerCapMax:    value[float64](g.PowerCapMax()),
		Nvidia:         nvidia,
	}
}

func value[T any](v T, err error) *T {
	if err != nil {
		return nil
	}
	return &v
}

// fraction turns a percentage into a ratio clamped to [0, 1].
func fraction(percent float64, err error) *float64 {
	if err != nil {
		return nil
	}
	f := min(max(percent/100, 0), 1)
	return &f
}
