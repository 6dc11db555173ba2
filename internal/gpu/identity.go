package gpu

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/CristiGvl/hwsense/internal/pci"
	"github.com/CristiGvl/hwsense/internal/sysfs"
)

// notApplicable is used for uevent keys the kernel did not report.
const notApplicable = "N/A"

// Identity is what a card's uevent says about it.
type Identity struct {
	VendorID  uint16
	ProductID uint16
	Device    *pci.Device
	Slot      pci.Slot
	Driver    string
}

// ResolveIdentity reads <cardPath>/device/uevent and looks the card up in
// db. A missing or malformed PCI_ID yields IDs 0:0 and no device record. An
// unreadable uevent or unparsable PCI_SLOT_NAME is an error, and so is a
// simple-framebuffer driver (ErrNotGPU).
func ResolveIdentity(fs afero.Fs, db pci.Database, cardPath string) (Identity, error) {
	uevent, err := sysfs.ReadUevent(fs, path.Join(cardPath, "device", "uevent"))
	if err != nil {
		return Identity{}, err
	}

	var id Identity
	if pciID, ok := uevent["PCI_ID"]; ok {
		id.VendorID, id.ProductID = parsePCIID(pciID)
		id.Device = db.Lookup(id.VendorID, id.ProductID)
	}

	slotName, ok := uevent["PCI_SLOT_NAME"]
	if !ok {
		slotName = notApplicable
	}
	id.Slot, err = pci.ParseSlot(slotName)
	if err != nil {
		return Identity{}, fmt.Errorf("can't turn PCI string to struct: %w", err)
	}

	id.Driver, ok = uevent["DRIVER"]
	if !ok {
		id.Driver = notApplicable
	}
	if id.Driver == "simple-framebuffer" {
		return Identity{}, ErrNotGPU
	}

	return id, nil
}

// parsePCIID splits "1002:73BF" into vendor and product. Each half that
// does not parse is zero.
func parsePCIID(s string) (vendor, product uint16) {
	v, p, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0
	}
	return parseHex16(v), parseHex16(p)
}

func parseHex16(s string) uint16 {
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}
