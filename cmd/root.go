package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/CristiGvl/hwsense/internal/config"
	"github.com/CristiGvl/hwsense/internal/logger"
	"github.com/CristiGvl/hwsense/internal/platform"
	"github.com/CristiGvl/hwsense/internal/sysfs"
)

var zlog = logger.New("cmd")

// cfg is resolved before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hwsense",
	Short: "CPU and GPU telemetry from /proc and /sys",
	Long: `hwsense reads processor and graphics adapter telemetry from the Linux
kernel interfaces and serves it over HTTP or prints a one-off snapshot.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		logger.SetDebug(cfg.General.Debug)

		return platform.ValidateSupport(sysfs.OsFs(), cfg.Sysfs.Root, cfg.Procfs.Root)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("sys-root", "/sys", "sysfs mount point")
	rootCmd.PersistentFlags().String("proc-root", "/proc", "procfs mount point")
	rootCmd.PersistentFlags().Duration("interval", 2*time.Second, "time between samples")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func Execute() {
	defer logger.Sync()
	// CheckErr prints formatted error message, if there is any, and exits
	cobra.CheckErr(rootCmd.Execute())
}
