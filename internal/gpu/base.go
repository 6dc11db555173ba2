package gpu

import (
	"errors"
	"path"

	"github.com/spf13/afero"

	"github.com/CristiGvl/hwsense/internal/pci"
	"github.com/CristiGvl/hwsense/internal/sysfs"
)

// base holds what every vendor type knows about its card and provides the
// DRM and hwmon generic implementations of Capabilities.
type base struct {
	fs     afero.Fs
	device *pci.Device
	slot   pci.Slot
	driver string
	path   string
	hwmon  string
}

func newBase(fs afero.Fs, id Identity, cardPath, hwmon string) base {
	return base{
		fs:     fs,
		device: id.Device,
		slot:   id.Slot,
		driver: id.Driver,
		path:   cardPath,
		hwmon:  hwmon,
	}
}

func (*base) sealed() {}

func (b *base) Device() *pci.Device {
	return b.device
}

func (b *base) PCISlot() pci.Slot {
	return b.slot
}

func (b *base) Driver() string {
	return b.driver
}

// SysfsPath returns the DRM card directory, e.g. /sys/class/drm/card0.
func (b *base) SysfsPath() string {
	return b.path
}

func (b *base) FirstHwmon() (string, bool) {
	return b.hwmon, b.hwmon != ""
}

// readSysfsInt reads a file directly below the card directory.
func (b *base) readSysfsInt(file string) (int64, error) {
	return sysfs.ReadInt(b.fs, path.Join(b.path, file))
}

func (b *base) readDeviceFile(file string) (string, error) {
	return sysfs.ReadString(b.fs, path.Join(b.path, "device", file))
}

func (b *base) readDeviceInt(file string) (int64, error) {
	return sysfs.ReadInt(b.fs, path.Join(b.path, "device", file))
}

func (b *base) readDeviceUint(file string) (uint64, error) {
	return sysfs.ReadUint(b.fs, path.Join(b.path, "device", file))
}

func (b *base) readHwmonInt(file string) (int64, error) {
	if b.hwmon == "" {
		return 0, ErrNoHwmon
	}
	return sysfs.ReadInt(b.fs, path.Join(b.hwmon, file))
}

// DRMName returns the product name from the PCI database.
func (b *base) DRMName() (string, error) {
	if b.device == nil {
		return "", ErrNoDevice
	}
	return b.device.Name, nil
}

// DRMUsage reads gpu_busy_percent.
func (b *base) DRMUsage() (float64, error) {
	v, err := b.readDeviceInt("gpu_busy_percent")
	return float64(v), err
}

// DRMUsedVRAM reads mem_info_vram_used in bytes.
func (b *base) DRMUsedVRAM() (uint64, error) {
	return b.readDeviceUint("mem_info_vram_used")
}

// DRMTotalVRAM reads mem_info_vram_total in bytes.
func (b *base) DRMTotalVRAM() (uint64, error) {
	return b.readDeviceUint("mem_info_vram_total")
}

// HwmonTemperature reads temp1_input in °C.
func (b *base) HwmonTemperature() (float64, error) {
	v, err := b.readHwmonInt("temp1_input")
	return float64(v) / 1000, err
}

// HwmonPowerUsage reads power1_average, or power1_input on drivers that
// only report instantaneous power, in W.
func (b *base) HwmonPowerUsage() (float64, error) {
	v, err := b.readHwmonInt("power1_average")
	if err != nil {
		if errors.Is(err, ErrNoHwmon) {
			return 0, err
		}
		v, err = b.readHwmonInt("power1_input")
	}
	return float64(v) / 1_000_000, err
}

// HwmonCoreFrequency reads freq1_input in Hz.
func (b *base) HwmonCoreFrequency() (float64, error) {
	v, err := b.readHwmonInt("freq1_input")
	return float64(v), err
}

// HwmonVRAMFrequency reads freq2_input in Hz.
func (b *base) HwmonVRAMFrequency() (float64, error) {
	v, err := b.readHwmonInt("freq2_input")
	return float64(v), err
}

// HwmonPowerCap reads power1_cap in W.
func (b *base) HwmonPowerCap() (float64, error) {
	v, err := b.readHwmonInt("power1_cap")
	return float64(v) / 1_000_000, err
}

// HwmonPowerCapMax reads power1_cap_max in W.
func (b *base) HwmonPowerCapMax() (float64, error) {
	v, err := b.readHwmonInt("power1_cap_max")
	return float64(v) / 1_000_000, err
}

func (b *base) Name() (string, error) {
	return b.DRMName()
}

func (b *base) Usage() (float64, error) {
	return b.DRMUsage()
}

func (b *base) EncodeUsage() (float64, error) {
	return 0, ErrUnsupported
}

func (b *base) DecodeUsage() (float64, error) {
	return 0, ErrUnsupported
}

func (b *base) CombinedMediaEngine() (bool, error) {
	return false, ErrUnsupported
}

func (b *base) UsedVRAM() (uint64, error) {
	return b.DRMUsedVRAM()
}

func (b *base) TotalVRAM() (uint64, error) {
	return b.DRMTotalVRAM()
}

func (b *base) Temperature() (float64, error) {
	return b.HwmonTemperature()
}

func (b *base) PowerUsage() (float64, error) {
	return b.HwmonPowerUsage()
}

func (b *base) CoreFrequency() (float64, error) {
	return b.HwmonCoreFrequency()
}

func (b *base) VRAMFrequency() (float64, error) {
	return b.HwmonVRAMFrequency()
}

func (b *base) PowerCap() (float64, error) {
	return b.HwmonPowerCap()
}

func (b *base) PowerCapMax() (float64, error) {
	return b.HwmonPowerCapMax()
}
