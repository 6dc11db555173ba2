package gpu

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// AMD is a GPU driven by amdgpu.
type AMD struct {
	base
}

func (*AMD) Kind() Kind {
	return KindAMD
}

// CoreFrequency prefers hwmon and falls back to the active pp_dpm_sclk level.
func (g *AMD) CoreFrequency() (float64, error) {
	if hz, err := g.HwmonCoreFrequency(); err == nil {
		return hz, nil
	}
	return g.dpmFrequency("pp_dpm_sclk")
}

// VRAMFrequency prefers hwmon and falls back to the active pp_dpm_mclk level.
func (g *AMD) VRAMFrequency() (float64, error) {
	if hz, err := g.HwmonVRAMFrequency(); err == nil {
		return hz, nil
	}
	return g.dpmFrequency("pp_dpm_mclk")
}

// CombinedMediaEngine is true on cards with a unified VCN block, which are
// the ones exposing gpu_metrics.
func (g *AMD) CombinedMediaEngine() (bool, error) {
	return afero.Exists(g.fs, path.Join(g.path, "device", "gpu_metrics"))
}

func (g *AMD) dpmFrequency(file string) (float64, error) {
	content, err := g.readDeviceFile(file)
	if err != nil {
		return 0, err
	}
	mhz, err := parseDPMLevel(content)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", file, err)
	}
	return mhz * 1_000_000, nil
}

// parseDPMLevel returns the clock in MHz of the level marked with '*', e.g.
// "1: 1800Mhz *".
func parseDPMLevel(content string) (float64, error) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			break
		}
		freq := strings.TrimSuffix(strings.ToLower(parts[1]), "mhz")
		return strconv.ParseFloat(freq, 64)
	}
	return 0, errors.New("no active level")
}
