package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/signals"
)

var gpioCmd = &cobra.Command{
	Use:   "gpio",
	Short: "Read the configured signal lines",
	Long: `Read the level of every configured signal line through sysfs.

Lines are read only; nothing is exported or driven, so this is safe while
the daemon runs. Lines the daemon has not exported yet are reported as
unavailable. The AP button is pulled up and reads low while pressed.`,
	Args: cobra.NoArgs,
	RunE: runGPIO,
}

func init() {
	rootCmd.AddCommand(gpioCmd)
}

// lineReader reads a signal level; implemented by *signals.Sysfs
type lineReader interface {
	Read(ch signals.Channel) (bool, error)
}

type lineLevel struct {
	channel signals.Channel
	pin     int
	high    bool
	err     error
}

func readLines(r lineReader, pins signals.Pins) []lineLevel {
	levels := make([]lineLevel, 0, len(pins))
	for ch, pin := range pins {
		high, err := r.Read(ch)
		levels = append(levels, lineLevel{channel: ch, pin: pin, high: high, err: err})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].pin < levels[j].pin })
	return levels
}

func (l lineLevel) describe() string {
	if l.err != nil {
		return "unavailable"
	}
	if l.channel == signals.APButton {
		if l.high {
			return "released"
		}
		return "pressed"
	}
	if l.high {
		return "high"
	}
	return "low"
}

func printLines(out io.Writer, levels []lineLevel) {
	for _, l := range levels {
		fmt.Fprintf(out, "  gpio%-3d %-10s %s\n", l.pin, l.channel, l.describe())
	}
}

func runGPIO(cmd *cobra.Command, args []string) error {
	pins, err := cfg.SignalPins()
	if err != nil {
		return err
	}
	s := signals.NewSysfs(pins)
	if cfg.Signals.Root != "" {
		s.Root = cfg.Signals.Root
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signal lines under %s:\n\n", s.Root)
	printLines(cmd.OutOrStdout(), readLines(s, pins))
	return nil
}
