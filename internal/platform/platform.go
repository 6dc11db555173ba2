package platform

import (
	"fmt"
	"path"
	"runtime"

	"github.com/spf13/afero"
)

// SupportedOS represents supported operating systems
type SupportedOS string

const (
	Linux SupportedOS = "linux"
)

// GetOS returns the current operating system
func GetOS() SupportedOS {
	return SupportedOS(runtime.GOOS)
}

// IsSupported returns true if the current OS is supported
func IsSupported() bool {
	return GetOS() == Linux
}

// ValidateSupport returns an error if the current OS is not supported or
// the kernel filesystems are not mounted at the given roots.
func ValidateSupport(fs afero.Fs, sysRoot, procRoot string) error {
	if !IsSupported() {
		return fmt.Errorf("unsupported operating system: %s. Supported: linux", runtime.GOOS)
	}
	for _, dir := range []string{path.Join(sysRoot, "class"), procRoot} {
		ok, err := afero.DirExists(fs, dir)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", dir, err)
		}
		if !ok {
			return fmt.Errorf("%s does not exist, is the filesystem mounted?", dir)
		}
	}
	return nil
}
