package gpu

import (
	"path"
	"testing"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CristiGvl/hwsense/internal/pci"
)

func TestParseDPMLevel(t *testing.T) {
	mhz, err := parseDPMLevel("0: 500Mhz \n1: 800Mhz \n2: 1800Mhz *\n")
	require.NoError(t, err)
	assert.Equal(t, 1800.0, mhz)

	mhz, err = parseDPMLevel("0: 96MHz *\n1: 1000MHz\n")
	require.NoError(t, err)
	assert.Equal(t, 96.0, mhz)

	_, err = parseDPMLevel("0: 500Mhz\n1: 800Mhz\n")
	assert.Error(t, err)
}

func TestAMDClocksFallBackToDPM(t *testing.T) {
	fs := afero.NewMemMapFs()
	card := addCard(t, fs, "card1", "", map[string]string{
		"device/pp_dpm_sclk":              "0: 500Mhz\n1: 2100Mhz *\n",
		"device/pp_dpm_mclk":              "0: 96Mhz *\n1: 1000Mhz\n",
		"device/hwmon/hwmon2/freq2_input": "875000000\n",
	})
	g := &AMD{base: testBase(fs, card, path.Join(card, "device/hwmon/hwmon2"))}

	core, err := g.CoreFrequency()
	require.NoError(t, err)
	assert.Equal(t, 2.1e9, core)

	vram, err := g.VRAMFrequency()
	require.NoError(t, err)
	assert.Equal(t, 875e6, vram)
}

func TestAMDCombinedMediaEngine(t *testing.T) {
	fs := afero.NewMemMapFs()
	card := addCard(t, fs, "card0", "", nil)
	g := &AMD{base: testBase(fs, card, "")}

	combined, err := g.CombinedMediaEngine()
	require.NoError(t, err)
	assert.False(t, combined)

	writeFile(t, fs, path.Join(card, "device/gpu_metrics"), "\x00")
	combined, err = g.CombinedMediaEngine()
	require.NoError(t, err)
	assert.True(t, combined)
}

func TestIntelCoreFrequency(t *testing.T) {
	fs := afero.NewMemMapFs()
	card := addCard(t, fs, "card0", "", map[string]string{
		"gt_act_freq_mhz":                 "1150\n",
		"device/hwmon/hwmon4/freq1_input": "300000000\n",
	})
	hwmon := path.Join(card, "device/hwmon/hwmon4")
	g := &Intel{base: testBase(fs, card, hwmon)}

	core, err := g.CoreFrequency()
	require.NoError(t, err)
	assert.Equal(t, 1.15e9, core)

	require.NoError(t, fs.Remove(path.Join(card, "gt_act_freq_mhz")))
	core, err = g.CoreFrequency()
	require.NoError(t, err)
	assert.Equal(t, 3e8, core)
}

type fakeNVMLDevice struct {
	ret nvml.Return
}

func (d *fakeNVMLDevice) GetName() (string, nvml.Return) {
	return "NVIDIA GeForce RTX 3080", d.ret
}

func (d *fakeNVMLDevice) GetUtilizationRates() (nvml.Utilization, nvml.Return) {
	return nvml.Utilization{Gpu: 73, Memory: 20}, d.ret
}

func (d *fakeNVMLDevice) GetEncoderUtilization() (uint32, uint32, nvml.Return) {
	return 12, 167000, d.ret
}

func (d *fakeNVMLDevice) GetDecoderUtilization() (uint32, uint32, nvml.Return) {
	return 30, 167000, d.ret
}

func (d *fakeNVMLDevice) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return nvml.Memory{Total: 10 << 30, Free: 6 << 30, Used: 4 << 30}, d.ret
}

func (d *fakeNVMLDevice) GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return) {
	return 66, d.ret
}

func (d *fakeNVMLDevice) GetPowerUsage() (uint32, nvml.Return) {
	return 215500, d.ret
}

func (d *fakeNVMLDevice) GetClockInfo(clock nvml.ClockType) (uint32, nvml.Return) {
	if clock == nvml.CLOCK_MEM {
		return 9501, d.ret
	}
	return 1905, d.ret
}

func (d *fakeNVMLDevice) GetPowerManagementLimit() (uint32, nvml.Return) {
	return 320000, d.ret
}

func (d *fakeNVMLDevice) GetPowerManagementLimitConstraints() (uint32, uint32, nvml.Return) {
	return 100000, 370000, d.ret
}

type fakeNVML struct {
	dev   NVMLDevice
	err   error
	calls int
	slot  pci.Slot
}

func (f *fakeNVML) DeviceBySlot(slot pci.Slot) (NVMLDevice, error) {
	f.calls++
	f.slot = slot
	return f.dev, f.err
}

func TestNVIDIAUsesNVML(t *testing.T) {
	source := &fakeNVML{dev: &fakeNVMLDevice{ret: nvml.SUCCESS}}
	g := &NVIDIA{base: testBase(afero.NewMemMapFs(), "/sys/class/drm/card0", ""), nvml: source}

	name, err := g.Name()
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA GeForce RTX 3080", name)

	usage, err := g.Usage()
	require.NoError(t, err)
	assert.Equal(t, 73.0, usage)

	enc, err := g.EncodeUsage()
	require.NoError(t, err)
	assert.Equal(t, 12.0, enc)

	dec, err := g.DecodeUsage()
	require.NoError(t, err)
	assert.Equal(t, 30.0, dec)

	combined, err := g.CombinedMediaEngine()
	require.NoError(t, err)
	assert.False(t, combined)

	used, err := g.UsedVRAM()
	require.NoError(t, err)
	assert.Equal(t, uint64(4<<30), used)

	total, err := g.TotalVRAM()
	require.NoError(t, err)
	assert.Equal(t, uint64(10<<30), total)

	temp, err := g.Temperature()
	require.NoError(t, err)
	assert.Equal(t, 66.0, temp)

	power, err := g.PowerUsage()
	require.NoError(t, err)
	assert.Equal(t, 215.5, power)

	core, err := g.CoreFrequency()
	require.NoError(t, err)
	assert.Equal(t, 1905e6, core)

	vram, err := g.VRAMFrequency()
	require.NoError(t, err)
	assert.Equal(t, 9501e6, vram)

	powerCap, err := g.PowerCap()
	require.NoError(t, err)
	assert.Equal(t, 320.0, powerCap)

	powerCapMax, err := g.PowerCapMax()
	require.NoError(t, err)
	assert.Equal(t, 370.0, powerCapMax)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, pci.Slot{Bus: 3}, source.slot)
}

func TestNVIDIAFallsBackToSysfs(t *testing.T) {
	fs := afero.NewMemMapFs()
	card := addCard(t, fs, "card0", "", map[string]string{
		"device/hwmon/hwmon0/temp1_input":  "48000\n",
		"device/hwmon/hwmon0/power1_input": "21000000\n",
	})
	hwmon := path.Join(card, "device/hwmon/hwmon0")

	for name, source := range map[string]NVML{
		"no library":   nil,
		"lookup fails": &fakeNVML{err: assert.AnError},
		"call fails":   &fakeNVML{dev: &fakeNVMLDevice{ret: nvml.ERROR_NOT_SUPPORTED}},
	} {
		t.Run(name, func(t *testing.T) {
			g := &NVIDIA{base: testBase(fs, card, hwmon), nvml: source}

			temp, err := g.Temperature()
			require.NoError(t, err)
			assert.Equal(t, 48.0, temp)

			power, err := g.PowerUsage()
			require.NoError(t, err)
			assert.Equal(t, 21.0, power)

			_, err = g.Usage()
			assert.Error(t, err)
			_, err = g.EncodeUsage()
			assert.Error(t, err)
		})
	}
}
