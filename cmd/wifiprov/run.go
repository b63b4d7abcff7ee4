package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the provisioning daemon in the foreground",
	Long: `Run the provisioning daemon.

With stored credentials the daemon joins that network and reconnects
whenever the link drops. Without them it starts the ESP32_Config access
point and serves the provisioning form. Submitted credentials are saved
and used immediately.

The monitor endpoint (status, event stream and metrics) listens on the
address configured under monitor.addr.`,
	Example: `  # Run with the default configuration
  wifiprov run

  # Run with a specific config file and verbose logging
  wifiprov run --config /etc/wifiprov/config.yaml --log-level debug`,
	Annotations: map[string]string{daemonAnnotation: ""},
	RunE:        runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx)
}

func serve(ctx context.Context) error {
	d, err := newDaemon(cfg)
	if err != nil {
		return err
	}
	return d.run(ctx)
}
