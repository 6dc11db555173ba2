package gpu

import (
	"path"
	"strconv"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataClampsUsage(t *testing.T) {
	tests := []struct {
		percent int
		want    float64
	}{
		{-5, 0},
		{0, 0},
		{57, 0.57},
		{100, 1},
		{150, 1},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.percent), func(t *testing.T) {
			fs := afero.NewMemMapFs()
			card := addCard(t, fs, "card0", "", map[string]string{
				"device/gpu_busy_percent": strconv.Itoa(tt.percent) + "\n",
			})

			data := NewData(&Other{base: testBase(fs, card, "")})
			require.NotNil(t, data.UsageFraction)
			assert.InDelta(t, tt.want, *data.UsageFraction, 1e-9)
		})
	}
}

func TestNewDataPartialFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	card := addCard(t, fs, "card0", "", map[string]string{
		"device/mem_info_vram_total":      "4294967296\n",
		"device/mem_info_vram_used":       "not a number\n",
		"device/hwmon/hwmon0/temp1_input": "55000\n",
	})
	g := &AMD{base: testBase(fs, card, path.Join(card, "device/hwmon/hwmon0"))}

	data := NewData(g)
	assert.Equal(t, g.PCISlot(), data.PCISlot)
	assert.False(t, data.Nvidia)

	require.NotNil(t, data.TotalVRAM)
	assert.Equal(t, uint64(4<<30), *data.TotalVRAM)
	require.NotNil(t, data.Temperature)
	assert.Equal(t, 55.0, *data.Temperature)

	assert.Nil(t, data.UsedVRAM)
	assert.Nil(t, data.UsageFraction)
	assert.Nil(t, data.EncodeFraction)
	assert.Nil(t, data.DecodeFraction)
	assert.Nil(t, data.ClockSpeed)
	assert.Nil(t, data.VRAMSpeed)
	assert.Nil(t, data.PowerUsage)
	assert.Nil(t, data.PowerCap)
	assert.Nil(t, data.PowerCapMax)
}

func TestNewDataMarksNvidia(t *testing.T) {
	g := &NVIDIA{base: testBase(afero.NewMemMapFs(), "/sys/class/drm/card0", "")}

	data := NewData(g)
	assert.True(t, data.Nvidia)
	assert.Nil(t, data.UsageFraction)
}
