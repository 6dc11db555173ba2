//go:build !linux

package cpu

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("CPU monitoring not supported on this platform")

// UnsupportedReader is a fallback for unsupported platforms
type UnsupportedReader struct{}

// newPlatformReader creates a fallback CPU reader for unsupported platforms
func newPlatformReader(options) Reader {
	return &UnsupportedReader{}
}

// GetInfo returns an error for unsupported platforms
func (r *UnsupportedReader) GetInfo(context.Context) (*Info, error) {
	return nil, errUnsupported
}

// GetTotalUsage returns an error for unsupported platforms
func (r *UnsupportedReader) GetTotalUsage() (Usage, error) {
	return Usage{}, errUnsupported
}

// GetCoreUsage returns an error for unsupported platforms
func (r *UnsupportedReader) GetCoreUsage(int) (Usage, error) {
	return Usage{}, errUnsupported
}

// GetFrequency returns an error for unsupported platforms
func (r *UnsupportedReader) GetFrequency(int) (uint64, error) {
	return 0, errUnsupported
}

// GetTemperature returns an error for unsupported platforms
func (r *UnsupportedReader) GetTemperature() (float64, error) {
	return 0, errUnsupported
}

// GetData returns an empty sample
func (r *UnsupportedReader) GetData(logicalCPUs int) *Data {
	logicalCPUs = max(logicalCPUs, 0)
	return &Data{
		ThreadUsages:   make([]Usage, logicalCPUs),
		Frequencies:    make([]*uint64, logicalCPUs),
		TemperatureErr: errUnsupported,
	}
}
