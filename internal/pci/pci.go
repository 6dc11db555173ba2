// Package pci resolves PCI vendor and product IDs to human readable records.
//
// Records are looked up once from an immutable database and handed out by
// pointer; callers share them for the life of the process and must not
// modify them.
package pci

import (
	"fmt"
	"sync"

	"github.com/jaypipes/pcidb"

	"github.com/CristiGvl/hwsense/internal/logger"
)

var zlog = logger.New("pci")

// Vendor is a PCI vendor record.
type Vendor struct {
	ID   uint16
	Name string
}

// Device is a PCI product record together with its vendor.
type Device struct {
	VendorID  uint16
	ProductID uint16
	Name      string
	Vendor    *Vendor
}

// Database looks up device records by vendor and product ID. Lookup returns
// nil when the pair is unknown.
type Database interface {
	Lookup(vendorID, productID uint16) *Device
}

// Registry is a Database backed by the system pci.ids file through pcidb.
// The file is parsed on first use.
type Registry struct {
	once    sync.Once
	db      *pcidb.PCIDB
	loadErr error

	mu      sync.Mutex
	vendors map[uint16]*Vendor
	devices map[uint32]*Device
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry returns an empty registry that loads pci.ids lazily.
func NewRegistry() *Registry {
	return &Registry{
		vendors: make(map[uint16]*Vendor),
		devices: make(map[uint32]*Device),
	}
}

func (r *Registry) load() {
	r.once.Do(func() {
		r.db, r.loadErr = pcidb.New()
		if r.loadErr != nil {
			zlog.Sugar().Warnf("PCI database not available: %v", r.loadErr)
		}
	})
}

// Err reports why the underlying database could not be loaded, if it could
// not.
func (r *Registry) Err() error {
	r.load()
	return r.loadErr
}

// Lookup implements Database.
func (r *Registry) Lookup(vendorID, productID uint16) *Device {
	r.load()
	if r.db == nil {
		return nil
	}

	key := uint32(vendorID)<<16 | uint32(productID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if dev, ok := r.devices[key]; ok {
		return dev
	}

	product, ok := r.db.Products[fmt.Sprintf("%04x%04x", vendorID, productID)]
	if !ok {
		r.devices[key] = nil
		return nil
	}

	dev := &Device{
		VendorID:  vendorID,
		ProductID: productID,
		Name:      product.Name,
		Vendor:    r.vendorLocked(vendorID),
	}
	r.devices[key] = dev
	return dev
}

func (r *Registry) vendorLocked(id uint16) *Vendor {
	if v, ok := r.vendors[id]; ok {
		return v
	}

	var v *Vendor
	if rec, ok := r.db.Vendors[fmt.Sprintf("%04x", id)]; ok {
		v = &Vendor{ID: id, Name: rec.Name}
	}
	r.vendors[id] = v
	return v
}

// StaticDatabase is a fixed in-memory Database, mostly useful when pci.ids is
// not installed and in tests.
type StaticDatabase map[uint32]*Device

// NewStaticDatabase indexes the given records by vendor and product ID.
func NewStaticDatabase(devices ...*Device) StaticDatabase {
	db := make(StaticDatabase, len(devices))
	for _, d := range devices {
		db[uint32(d.VendorID)<<16|uint32(d.ProductID)] = d
	}
	return db
}

// Lookup implements Database.
func (db StaticDatabase) Lookup(vendorID, productID uint16) *Device {
	return db[uint32(vendorID)<<16|uint32(productID)]
}
