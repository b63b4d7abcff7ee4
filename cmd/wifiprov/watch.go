package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/monitor"
	"github.com/muurk/wifiprov/internal/provclient"
	"github.com/muurk/wifiprov/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow state transitions of a running daemon",
	Long: `Open the event stream of a running daemon and display state
transitions as they happen. Press q to quit.

When stdout is not a terminal, transitions are printed one per line.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&monitorURL, "monitor", "", "Monitor base URL (default: from monitor.addr)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	target, err := resolveMonitorURL()
	if err != nil {
		return err
	}

	if !ui.IsTerminal() {
		return provclient.Watch(cmd.Context(), target, func(msg monitor.Message) {
			printMessage(cmd, msg)
		})
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(ui.NewWatchModel(target), tea.WithContext(ctx))
	go func() {
		err := provclient.Watch(ctx, target, func(msg monitor.Message) {
			p.Send(ui.EventMsg(msg))
		})
		p.Send(ui.StreamClosedMsg{Err: err})
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch view failed: %w", err)
	}
	if m, ok := final.(ui.WatchModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

func printMessage(cmd *cobra.Command, msg monitor.Message) {
	out := cmd.OutOrStdout()
	switch msg.Type {
	case monitor.TypeSnapshot:
		if msg.Snapshot != nil {
			fmt.Fprintf(out, "%s  %s (%s)\n", msg.Snapshot.Since.Format("15:04:05"), msg.Snapshot.State, msg.Snapshot.Mode)
		}
	case monitor.TypeTransition:
		if msg.Transition != nil {
			fmt.Fprintln(out, ui.RenderTransition(*msg.Transition))
		}
	}
}
