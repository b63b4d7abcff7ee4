package signals

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/muurk/wifiprov/internal/logging"
	"go.uber.org/zap"
)

// DefaultSysfsRoot is the Linux GPIO sysfs class directory
const DefaultSysfsRoot = "/sys/class/gpio"

// Sysfs drives GPIO lines through the Linux sysfs interface.
type Sysfs struct {
	Root string
	Pins Pins
}

// NewSysfs creates a controller for pins under the default sysfs root
func NewSysfs(pins Pins) *Sysfs {
	return &Sysfs{Root: DefaultSysfsRoot, Pins: pins}
}

// Init exports every configured line, drives the outputs low and configures
// the button as an input.
func (s *Sysfs) Init() error {
	for _, ch := range Outputs {
		pin, ok := s.Pins[ch]
		if !ok {
			continue
		}
		if err := s.export(pin); err != nil {
			return fmt.Errorf("failed to export %s (gpio%d): %w", ch, pin, err)
		}
		if err := s.write(pin, "direction", "out"); err != nil {
			return fmt.Errorf("failed to configure %s as output: %w", ch, err)
		}
		if err := s.write(pin, "value", "0"); err != nil {
			return fmt.Errorf("failed to reset %s: %w", ch, err)
		}
	}

	if pin, ok := s.Pins[APButton]; ok {
		if err := s.export(pin); err != nil {
			return fmt.Errorf("failed to export %s (gpio%d): %w", APButton, pin, err)
		}
		if err := s.write(pin, "direction", "in"); err != nil {
			return fmt.Errorf("failed to configure %s as input: %w", APButton, err)
		}
		// Pull-up is board/device-tree configuration; sysfs cannot set it
		logging.Debug("Button configured", zap.Int("gpio", pin))
	}
	return nil
}

// SetLevel implements Controller
func (s *Sysfs) SetLevel(ch Channel, on bool) {
	pin, ok := s.Pins[ch]
	if !ok {
		return
	}
	value := "0"
	if on {
		value = "1"
	}
	if err := s.write(pin, "value", value); err != nil {
		logging.Warn("Failed to set signal level",
			zap.String("channel", ch.String()),
			zap.Int("gpio", pin),
			zap.Error(err),
		)
	}
}

// Read returns the level of an input line
func (s *Sysfs) Read(ch Channel) (bool, error) {
	pin, ok := s.Pins[ch]
	if !ok {
		return false, fmt.Errorf("no pin for %s", ch)
	}
	data, err := os.ReadFile(s.pinPath(pin, "value"))
	if err != nil {
		return false, err
	}
	return len(data) > 0 && data[0] == '1', nil
}

func (s *Sysfs) pinPath(pin int, attr string) string {
	return filepath.Join(s.Root, "gpio"+strconv.Itoa(pin), attr)
}

func (s *Sysfs) export(pin int) error {
	if _, err := os.Stat(filepath.Join(s.Root, "gpio"+strconv.Itoa(pin))); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.WriteFile(filepath.Join(s.Root, "export"), []byte(strconv.Itoa(pin)), 0200)
}

func (s *Sysfs) write(pin int, attr, value string) error {
	return os.WriteFile(s.pinPath(pin, attr), []byte(value), 0644)
}
