package gpu

import (
	"fmt"
	"path"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/CristiGvl/hwsense/internal/pci"
	"github.com/CristiGvl/hwsense/internal/sysfs"
)

type options struct {
	fs      afero.Fs
	sysRoot string
	db      pci.Database
	nvml    NVML
}

// Option configures Discover.
type Option func(*options)

// WithFs reads sysfs through fs instead of the OS.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithSysRoot sets the sysfs mount point, "/sys" by default.
func WithSysRoot(root string) Option {
	return func(o *options) {
		o.sysRoot = root
	}
}

// WithDatabase sets the PCI name database, pci.Default() by default.
func WithDatabase(db pci.Database) Option {
	return func(o *options) {
		o.db = db
	}
}

// WithNVML sets the NVML source for NVIDIA GPUs, SystemNVML() by default.
// A nil source makes NVIDIA GPUs use sysfs only.
func WithNVML(n NVML) Option {
	return func(o *options) {
		o.nvml = n
	}
}

// Discover returns every GPU under <sys>/class/drm. A card that cannot be
// identified is skipped and its error added to the returned error, which is
// non-nil alongside the GPUs that were found.
func Discover(opts ...Option) ([]GPU, error) {
	o := options{
		sysRoot: "/sys",
		nvml:    SystemNVML(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = sysfs.OsFs()
	}
	if o.db == nil {
		o.db = pci.Default()
	}

	zlog.Debug("Searching for GPUs")

	cards, err := afero.Glob(o.fs, path.Join(o.sysRoot, "class/drm/card?"))
	if err != nil {
		return nil, fmt.Errorf("failed to read DRM directory: %w", err)
	}

	var (
		gpus []GPU
		errs error
	)
	for _, card := range cards {
		g, err := o.fromSysfsPath(card)
		if err != nil {
			zlog.Debug("Skipping DRM card", zap.String("path", card), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", card, err))
			continue
		}
		gpus = append(gpus, g)
	}

	zlog.Debug("GPUs found", zap.Int("count", len(gpus)))

	return gpus, errs
}

func (o *options) fromSysfsPath(card string) (GPU, error) {
	id, err := ResolveIdentity(o.fs, o.db, card)
	if err != nil {
		return nil, err
	}

	var hwmon string
	if hwmons, err := afero.Glob(o.fs, path.Join(card, "device/hwmon/hwmon?")); err == nil && len(hwmons) > 0 {
		hwmon = hwmons[0]
	}

	g := newGPU(o.fs, id, card, hwmon, o.nvml)

	name, err := g.Name()
	if err != nil {
		name = "<unknown name>"
	}
	zlog.Info(fmt.Sprintf("Found GPU %q", name),
		zap.Stringer("pci_slot", g.PCISlot()),
		zap.String("pci_id", fmt.Sprintf("%x:%x", id.VendorID, id.ProductID)),
		zap.String("category", string(g.Kind())),
	)

	return g, nil
}

// newGPU picks the vendor type by vendor ID, or by driver name when the ID
// is unknown or zero.
func newGPU(fs afero.Fs, id Identity, card, hwmon string, n NVML) GPU {
	b := newBase(fs, id, card, hwmon)

	switch {
	case id.VendorID == VIDAMD || id.Driver == "amdgpu":
		return &AMD{base: b}
	case id.VendorID == VIDIntel || id.Driver == "i915":
		return &Intel{base: b}
	case id.VendorID == VIDNVIDIA || id.Driver == "nvidia":
		return &NVIDIA{base: b, nvml: n}
	default:
		return &Other{base: b}
	}
}
