package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/credstore"
	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/provclient"
	"github.com/muurk/wifiprov/internal/ui"
)

var (
	deviceAddress string
	devicePort    int
	discover      bool
	instance      string
	scanTimeout   int

	provisionSSID     string
	provisionPassword string
	provisionRetries  int
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Send WiFi credentials to a device's provisioning portal",
	Long: `Send a network name and password to a device in provisioning mode.

Join the device's ESP32_Config access point first; the portal is then
reachable at 192.168.4.1. With --discover the portal is located over mDNS
instead, which works when the device and this machine share a network.`,
	Example: `  # Device access point at its default address
  wifiprov provision --ssid HomeNet --password hunter22

  # Locate the portal over mDNS
  wifiprov provision --discover --ssid HomeNet --password hunter22

  # Specific device on a custom port
  wifiprov provision --address 10.0.0.7 --port 8080 --ssid HomeNet`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)

	addDeviceFlags(provisionCmd)
	provisionCmd.Flags().StringVar(&provisionSSID, "ssid", "", "Network name (required)")
	provisionCmd.Flags().StringVar(&provisionPassword, "password", "", "Network password (empty for an open network)")
	provisionCmd.Flags().IntVar(&provisionRetries, "retries", provclient.DefaultMaxRetries, "Retry attempts for transient failures")
}

func addDeviceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&deviceAddress, "address", provclient.DefaultAddress, "Portal IP address")
	cmd.Flags().IntVar(&devicePort, "port", provclient.DefaultPort, "Portal HTTP port")
	cmd.Flags().BoolVar(&discover, "discover", false, "Locate the portal over mDNS instead of using --address")
	cmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name to wait for (default: first found)")
	cmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Discovery timeout in seconds")
}

// portalURL resolves the target portal from the device flags
func portalURL(cmd *cobra.Command) (string, error) {
	if !discover {
		return provclient.NewClient(deviceAddress, devicePort).BaseURL, nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Discovering provisioning portal (timeout: %ds)...\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	device, err := scanner.WaitForDeviceWithContext(cmd.Context(), instance)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found %s\n\n", device)
	return device.BaseURL(), nil
}

func runProvision(cmd *cobra.Command, args []string) error {
	if provisionSSID == "" {
		return errors.New("--ssid is required")
	}
	pair := credstore.Pair{NetworkName: provisionSSID, Secret: provisionPassword}

	baseURL, err := portalURL(cmd)
	if err != nil {
		return err
	}

	client := provclient.NewClientWithURL(baseURL)
	client.SetRetry(provisionRetries, provclient.DefaultRetryDelay)

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Provision device", "provision", map[string]string{
		"Portal":  baseURL,
		"Network": pair.NetworkName,
	})

	ack, err := client.Submit(cmd.Context(), pair)
	if err != nil {
		printer.PrintError("Credentials not accepted", err, ui.HintLines(provclient.GetTroubleshootingHint(err)))
		return err
	}

	printer.PrintSuccess("Credentials sent", map[string]string{
		"Network":  pair.NetworkName,
		"Password": strconv.Itoa(len(pair.Secret)) + " bytes",
		"Device":   ack,
	})
	printer.Println("The device leaves its access point once it joins the network.")
	return nil
}
