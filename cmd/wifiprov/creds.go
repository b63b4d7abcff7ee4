package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/credstore"
	"github.com/muurk/wifiprov/internal/ui"
)

var (
	credsSSID     string
	credsPassword string
	credsYes      bool
)

var credsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Inspect or edit the local credential store",
	Long: `Inspect or edit the credential store used by 'wifiprov run'.

Changes take effect the next time the daemon starts. To provision a running
daemon, use 'wifiprov provision' against its portal instead.`,
}

var credsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored network name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *credstore.Store) error {
			pair, ok := store.Load()
			printer := ui.NewPrinter(cmd.OutOrStdout())
			printer.Println(ui.RenderCredentials(pair, ok, printer.Width()))
			return nil
		})
	},
}

var credsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a network name and password",
	Example: `  wifiprov creds set --ssid HomeNet --password hunter22

  # Open network
  wifiprov creds set --ssid CafeGuest`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pair := credstore.Pair{NetworkName: credsSSID, Secret: credsPassword}
		if pair.NetworkName == "" {
			return errors.New("--ssid is required")
		}

		var warnings []string
		if len(pair.NetworkName) > credstore.MaxNetworkNameLen {
			warnings = append(warnings, fmt.Sprintf("Network name will be truncated to %d bytes", credstore.MaxNetworkNameLen))
		}
		if len(pair.Secret) > credstore.MaxSecretLen {
			warnings = append(warnings, fmt.Sprintf("Password will be truncated to %d bytes", credstore.MaxSecretLen))
		}

		return withStore(func(store *credstore.Store) error {
			if existing, ok := store.Load(); ok {
				warnings = append(warnings, fmt.Sprintf("Replaces the stored network %q", existing.NetworkName))
			}
			if len(warnings) > 0 && !credsYes {
				if !ui.Confirm(os.Stdin, cmd.OutOrStdout(), "Overwrite credentials", warnings) {
					return nil
				}
			}

			if err := store.Save(pair); err != nil {
				return err
			}
			saved, _ := store.Load()
			printer := ui.NewPrinter(cmd.OutOrStdout())
			printer.PrintSuccess("Credentials saved", map[string]string{
				"Network": saved.NetworkName,
			})
			return nil
		})
	},
}

var credsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase stored credentials so the daemon starts its access point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *credstore.Store) error {
			existing, ok := store.Load()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No credentials stored.")
				return nil
			}
			if !credsYes {
				warnings := []string{fmt.Sprintf("Forgets the network %q", existing.NetworkName)}
				if !ui.Confirm(os.Stdin, cmd.OutOrStdout(), "Clear credentials", warnings) {
					return nil
				}
			}
			if err := store.Save(credstore.Pair{}); err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Credentials cleared", nil)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(credsCmd)
	credsCmd.AddCommand(credsShowCmd, credsSetCmd, credsClearCmd)

	credsSetCmd.Flags().StringVar(&credsSSID, "ssid", "", "Network name")
	credsSetCmd.Flags().StringVar(&credsPassword, "password", "", "Network password (empty for an open network)")
	credsCmd.PersistentFlags().BoolVarP(&credsYes, "yes", "y", false, "Do not ask for confirmation")
}

// withStore opens the configured credential store for the duration of fn
func withStore(fn func(*credstore.Store) error) error {
	backend, closer, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(closer)
	return fn(credstore.New(backend))
}
