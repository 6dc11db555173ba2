package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/CristiGvl/hwsense/internal/pci"
)

// CPU identity endpoint
func (s *Server) getCPU(c *fiber.Ctx) error {
	return c.JSON(s.source.CPUInfo())
}

// CPU sample endpoint
func (s *Server) getCPUData(c *fiber.Ctx) error {
	snap := s.source.Snapshot()
	if snap.Time.IsZero() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no sample taken yet"})
	}

	return c.JSON(fiber.Map{
		"time": snap.Time,
		"cpu":  snap.CPU,
	})
}

// GPU identity endpoint
func (s *Server) getGPU(c *fiber.Ctx) error {
	return c.JSON(s.source.DescribeGPUs())
}

// GPU samples endpoint
func (s *Server) getGPUData(c *fiber.Ctx) error {
	snap := s.source.Snapshot()
	if snap.Time.IsZero() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no sample taken yet"})
	}

	return c.JSON(fiber.Map{
		"time": snap.Time,
		"gpus": snap.GPUs,
	})
}

// Single GPU sample endpoint, keyed by PCI slot
func (s *Server) getGPUDataBySlot(c *fiber.Ctx) error {
	slot, err := pci.ParseSlot(c.Params("slot"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid PCI slot"})
	}

	snap := s.source.Snapshot()
	if snap.Time.IsZero() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no sample taken yet"})
	}

	for _, g := range snap.GPUs {
		if g.PCISlot == slot {
			return c.JSON(g)
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "GPU not found"})
}
