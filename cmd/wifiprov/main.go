// Wifiprov is a WiFi provisioning daemon and companion CLI.
//
// The daemon joins the network stored in its credential store, or, when
// none is stored, raises the ESP32_Config access point and serves a form on
// which the network name and password can be entered. The remaining
// commands talk to a running daemon or a device's portal.
//
// Usage:
//
//	wifiprov run [flags]
//	wifiprov provision --ssid <name> --password <secret>
//	wifiprov scan
//
// See 'wifiprov --help' for all commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/config"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/version"
)

// daemonAnnotation marks commands that log according to the config file
const daemonAnnotation = "daemon"

var (
	configPath string
	logLevel   string

	// cfg is loaded before any subcommand runs
	cfg *config.Config
)

func main() {
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wifiprov",
	Short: "WiFi provisioning daemon and tools",
	Long: `Wifiprov keeps a device connected to the WiFi network stored in its
credential store. Without stored credentials it starts the ESP32_Config
access point and serves a provisioning form at http://192.168.4.1/.

Run 'wifiprov run' to start the daemon. The other commands provision,
discover and observe devices from a workstation.`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <config dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and initializes logging. Daemon commands log
// as configured; client commands stay silent unless --log-level or
// WIFIPROV_LOG_LEVEL is set.
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded
	if configPath == "" {
		configPath = path
	}

	opts := logging.Options{Level: logLevel}
	if _, ok := cmd.Annotations[daemonAnnotation]; ok {
		opts.File = cfg.Log.File
		opts.MaxSizeMB = cfg.Log.MaxSizeMB
		opts.MaxBackups = cfg.Log.MaxBackups
		if opts.Level == "" {
			opts.Level = cfg.Log.Level
		}
	}
	if err := logging.Initialize(opts); err != nil {
		return err
	}
	return nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.Details("wifiprov"))
	},
}
