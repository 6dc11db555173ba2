package pci

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jaypipes/ghw/pkg/pci/address"
)

// Slot is a PCI bus/device/function address such as 0000:03:00.0.
type Slot struct {
	Domain   uint16 `json:"domain"`
	Bus      uint8  `json:"bus"`
	Device   uint8  `json:"device"`
	Function uint8  `json:"function"`
}

// ParseSlot accepts both the full DDDD:BB:DD.F form used by PCI_SLOT_NAME and
// the short BB:DD.F form printed by lspci, which lands in domain 0.
func ParseSlot(s string) (Slot, error) {
	addr := address.FromString(strings.TrimSpace(s))
	if addr == nil {
		return Slot{}, fmt.Errorf("invalid PCI slot %q", s)
	}

	d, err := strconv.ParseUint(addr.Domain, 16, 16)
	if err != nil {
		return Slot{}, fmt.Errorf("invalid PCI domain in %q: %w", s, err)
	}
	b, err := strconv.ParseUint(addr.Bus, 16, 8)
	if err != nil {
		return Slot{}, fmt.Errorf("invalid PCI bus in %q: %w", s, err)
	}
	v, err := strconv.ParseUint(addr.Device, 16, 8)
	if err != nil || v > 0x1f {
		return Slot{}, fmt.Errorf("invalid PCI device in %q", s)
	}
	f, err := strconv.ParseUint(addr.Function, 16, 8)
	if err != nil || f > 7 {
		return Slot{}, fmt.Errorf("invalid PCI function in %q", s)
	}

	return Slot{
		Domain:   uint16(d),
		Bus:      uint8(b),
		Device:   uint8(v),
		Function: uint8(f),
	}, nil
}

// Address converts the slot to ghw's string form.
func (s Slot) Address() *address.Address {
	return &address.Address{
		Domain:   fmt.Sprintf("%04x", s.Domain),
		Bus:      fmt.Sprintf("%02x", s.Bus),
		Device:   fmt.Sprintf("%02x", s.Device),
		Function: fmt.Sprintf("%x", s.Function),
	}
}

func (s Slot) String() string {
	return s.Address().String()
}

// MarshalText renders the slot in its canonical sysfs form so it can be used
// as a JSON object key.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(text []byte) error {
	parsed, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
