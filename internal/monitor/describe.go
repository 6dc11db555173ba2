package monitor

import (
	"github.com/CristiGvl/hwsense/internal/gpu"
	"github.com/CristiGvl/hwsense/internal/pci"
)

// GPUInfo is the static description of a GPU.
type GPUInfo struct {
	Name                string   `json:"name,omitempty"`
	Kind                gpu.Kind `json:"kind"`
	Vendor              string   `json:"vendor,omitempty"`
	Driver              string   `json:"driver"`
	PCISlot             pci.Slot `json:"pci_slot"`
	SysfsPath           string   `json:"sysfs_path"`
	Hwmon               string   `json:"hwmon,omitempty"`
	CombinedMediaEngine *bool    `json:"combined_media_engine,omitempty"`
}

// DescribeGPU collects the identity of g. Fields that cannot be read are
// left empty.
func DescribeGPU(g gpu.GPU) GPUInfo {
	info := GPUInfo{
		Kind:      g.Kind(),
		Driver:    g.Driver(),
		PCISlot:   g.PCISlot(),
		SysfsPath: g.SysfsPath(),
	}
	if name, err := g.Name(); err == nil {
		info.Name = name
	}
	if v, err := gpu.Vendor(g); err == nil {
		info.Vendor = v.Name
	}
	if hwmon, ok := g.FirstHwmon(); ok {
		info.Hwmon = hwmon
	}
	if combined, err := g.CombinedMediaEngine(); err == nil {
		info.CombinedMediaEngine = &combined
	}
	return info
}

// DescribeGPUs describes every discovered GPU.
func (m *Monitor) DescribeGPUs() []GPUInfo {
	infos := make([]GPUInfo, 0, len(m.gpus))
	for _, g := range m.gpus {
		infos = append(infos, DescribeGPU(g))
	}
	return infos
}
