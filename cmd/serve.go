package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CristiGvl/hwsense/api"
	"github.com/CristiGvl/hwsense/internal/monitor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the hardware and serve the latest sample over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("address", "0.0.0.0:8080", "address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(ctx, cfg)
	if err := mon.Start(); err != nil {
		return err
	}
	defer mon.Stop()

	server := api.NewServer(mon)

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		if err := server.Shutdown(); err != nil {
			zlog.Error("Error during shutdown", zap.Error(err))
		}
	}()

	zlog.Info("Starting hwsense server", zap.String("address", cfg.Rest.Address))
	if err := server.Start(cfg.Rest.Address); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
