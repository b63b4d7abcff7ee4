package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for devices advertising a provisioning portal",
	Long: `Scan for devices using mDNS/DNS-SD discovery.

Devices advertise their portal only while they are in provisioning mode,
so a device already connected to its network will not be listed.`,
	Example: `  # Scan for 10 seconds (default)
  wifiprov scan

  # Quick 3-second scan
  wifiprov scan --timeout 3`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning for provisioning portals (timeout: %ds)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	devices, err := scanner.ScanForDevicesWithContext(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Ensure the device is powered on and has no stored credentials")
		fmt.Fprintln(out, "  - Join the ESP32_Config network and use 'wifiprov provision' directly")
		fmt.Fprintln(out, "  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Fprintln(out, ui.RenderDevices(devices, ui.GetTerminalWidth()))
	fmt.Fprintln(out, "Use 'wifiprov provision --address <ip> --ssid <name>' to provision a device")
	return nil
}
