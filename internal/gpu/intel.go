package gpu

// Intel is a GPU driven by i915.
type Intel struct {
	base
}

func (*Intel) Kind() Kind {
	return KindIntel
}

// CoreFrequency reads the actual GT frequency and falls back to hwmon.
func (g *Intel) CoreFrequency() (float64, error) {
	if mhz, err := g.readSysfsInt("gt_act_freq_mhz"); err == nil {
		return float64(mhz) * 1_000_000, nil
	}
	return g.HwmonCoreFrequency()
}
