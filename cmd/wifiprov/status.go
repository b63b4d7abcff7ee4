package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/provclient"
	"github.com/muurk/wifiprov/internal/ui"
)

var (
	monitorURL string
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running daemon",
	Long: `Query the monitor endpoint of a running daemon and print its state,
radio mode and acquired address.`,
	Example: `  # Local daemon, address from the config file
  wifiprov status

  # Remote daemon, JSON output for scripting
  wifiprov status --monitor http://10.0.0.7:8081 --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&monitorURL, "monitor", "", "Monitor base URL (default: from monitor.addr)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw snapshot as JSON")
}

// resolveMonitorURL returns --monitor, or the configured monitor address
func resolveMonitorURL() (string, error) {
	if monitorURL != "" {
		return monitorURL, nil
	}
	if cfg.Monitor.Addr == "" {
		return "", fmt.Errorf("monitor disabled in %s; pass --monitor", configPath)
	}
	return "http://" + cfg.Monitor.Addr, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	target, err := resolveMonitorURL()
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: provclient.DefaultTimeout}
	snap, err := provclient.FetchStatus(cmd.Context(), httpClient, target)
	if err != nil {
		printer := ui.NewPrinter(cmd.ErrOrStderr())
		printer.PrintError("Status unavailable", err, ui.HintLines(provclient.GetTroubleshootingHint(err)))
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSnapshot(snap, ui.GetTerminalWidth()))
	return nil
}
