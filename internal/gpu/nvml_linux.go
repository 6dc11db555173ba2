//go:build linux

package gpu

import (
	"fmt"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"go.uber.org/zap"

	"github.com/CristiGvl/hwsense/internal/pci"
)

type nvmlLibrary struct {
	once    sync.Once
	initErr error
}

var systemNVML = &nvmlLibrary{}

// SystemNVML returns the NVML library of the host. It is initialized on
// first use; on hosts without the NVIDIA driver every lookup fails.
func SystemNVML() NVML {
	return systemNVML
}

func (l *nvmlLibrary) init() error {
	l.once.Do(func() {
		if ret := nvml.Init(); ret != nvml.SUCCESS {
			l.initErr = nvmlError("NVIDIA Management Library not initialized", ret)
			zlog.Debug("NVML unavailable, using sysfs for NVIDIA GPUs", zap.Error(l.initErr))
		}
	})
	return l.initErr
}

func (l *nvmlLibrary) DeviceBySlot(slot pci.Slot) (NVMLDevice, error) {
	if err := l.init(); err != nil {
		return nil, err
	}
	dev, ret := nvml.DeviceGetHandleByPciBusId(slot.String())
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("device handle for %s: %s", slot, nvml.ErrorString(ret))
	}
	return dev, nil
}
