//go:build !linux

package gpu

// SystemNVML returns nil; NVML is only loaded on Linux.
func SystemNVML() NVML {
	return nil
}
