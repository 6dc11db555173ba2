package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/CristiGvl/hwsense/internal/cpu"
	"github.com/CristiGvl/hwsense/internal/monitor"
	"github.com/CristiGvl/hwsense/internal/platform"
)

// Source provides the data the API serves. *monitor.Monitor implements it.
type Source interface {
	CPUInfo() *cpu.Info
	DescribeGPUs() []monitor.GPUInfo
	Snapshot() monitor.Snapshot
}

// Server represents the API server
type Server struct {
	app    *fiber.App
	source Source
}

// NewServer creates a new API server
func NewServer(source Source) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "hwsense",
		AppName:               "hwsense",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		MaxAge:       86400, // 24 hours
	}))

	server := &Server{
		app:    app,
		source: source,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	// CPU endpoints
	api.Get("/cpu", s.getCPU)
	api.Get("/cpu/data", s.getCPUData)

	// GPU endpoints
	api.Get("/gpu", s.getGPU)
	api.Get("/gpu/data", s.getGPUData)
	api.Get("/gpu/:slot/data", s.getGPUDataBySlot)

	// Health check
	api.Get("/health", s.healthCheck)
}

// Start starts the API server
func (s *Server) Start(address string) error {
	return s.app.Listen(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Health check endpoint
func (s *Server) healthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp := fiber.Map{
		"status":    "ok",
		"platform":  platform.GetOS(),
		"timestamp": time.Now().Unix(),
	}
	if snap := s.source.Snapshot(); !snap.Time.IsZero() {
		resp["last_sample"] = snap.Time.Unix()
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		resp["hostname"] = info.Hostname
		resp["kernel"] = info.KernelVersion
		resp["uptime"] = info.Uptime
	}

	return c.JSON(resp)
}
