package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/muurk/wifiprov/internal/signals"
)

const (
	appName    = "wifiprov"
	configFile = "config.yaml"
)

// Store backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Network drivers
const (
	DriverSimulated = "simulated"
	DriverNMCLI     = "nmcli"
)

// Signal backends
const (
	SignalsNone  = "none"
	SignalsLog   = "log"
	SignalsSysfs = "sysfs"
)

// Config is the service configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Network   NetworkConfig   `yaml:"network"`
	Simulated SimulatedConfig `yaml:"simulated"`
	Portal    PortalConfig    `yaml:"portal"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	MDNS      MDNSConfig      `yaml:"mdns"`
	Signals   SignalsConfig   `yaml:"signals"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// StoreConfig selects the credential store backend
type StoreConfig struct {
	Backend string `yaml:"backend"`

	// Path is the storage directory (file) or database file (sqlite).
	// Empty means inside the config directory.
	Path string `yaml:"path,omitempty"`
}

// NetworkConfig selects the radio driver
type NetworkConfig struct {
	Driver    string `yaml:"driver"`
	Interface string `yaml:"interface,omitempty"`

	// ConnectTimeout treats a silent connect attempt as a disconnect.
	// Zero disables the watchdog.
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
}

// SimulatedConfig configures the in-process radio
type SimulatedConfig struct {
	// Networks maps reachable network names to their secrets
	Networks map[string]string `yaml:"networks,omitempty"`
	Address  string            `yaml:"address,omitempty"`
	Latency  time.Duration     `yaml:"latency,omitempty"`
}

// PortalConfig configures the provisioning endpoint
type PortalConfig struct {
	Addr      string `yaml:"addr"`
	BodyLimit int    `yaml:"body_limit"`
}

// MonitorConfig configures the status endpoint; an empty Addr disables it
type MonitorConfig struct {
	Addr string `yaml:"addr"`
}

// MDNSConfig controls portal advertisement
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance,omitempty"`
}

// SignalsConfig selects the output backend and pin wiring
type SignalsConfig struct {
	Backend string `yaml:"backend"`

	// Root is the sysfs gpio directory
	Root string `yaml:"root,omitempty"`

	// Pins overrides the default wiring by channel name
	Pins map[string]int `yaml:"pins,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Backend: BackendFile,
		},
		Network: NetworkConfig{
			Driver: DriverSimulated,
		},
		Simulated: SimulatedConfig{
			Latency: 500 * time.Millisecond,
		},
		Portal: PortalConfig{
			Addr:      ":80",
			BodyLimit: 100,
		},
		Monitor: MonitorConfig{
			Addr: "127.0.0.1:8081",
		},
		MDNS: MDNSConfig{
			Enabled: true,
		},
		Signals: SignalsConfig{
			Backend: SignalsLog,
			Root:    "/sys/class/gpio",
		},
	}
}

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/wifiprov or $HOME/.config/wifiprov
//   - macOS: $HOME/.config/wifiprov (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\wifiprov
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration at path, or the default location when path
// is empty. A missing file yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path (the default location when empty).
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# wifiprov configuration
#
# WiFi credentials are stored in the credential store, not in this file.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// Validate checks enumerated values and bounds
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}

	switch c.Network.Driver {
	case DriverSimulated:
	case DriverNMCLI:
		if c.Network.Interface == "" {
			errs = append(errs, errors.New("network.interface: required for the nmcli driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("network.driver: unknown driver %q", c.Network.Driver))
	}
	if c.Network.ConnectTimeout < 0 {
		errs = append(errs, errors.New("network.connect_timeout: must not be negative"))
	}

	if c.Portal.Addr == "" {
		errs = append(errs, errors.New("portal.addr: required"))
	}
	if c.Portal.BodyLimit <= 0 {
		errs = append(errs, errors.New("portal.body_limit: must be positive"))
	}

	switch c.Signals.Backend {
	case SignalsNone, SignalsLog, SignalsSysfs:
	default:
		errs = append(errs, fmt.Errorf("signals.backend: unknown backend %q", c.Signals.Backend))
	}
	if _, err := c.SignalPins(); err != nil {
		errs = append(errs, fmt.Errorf("signals.pins: %w", err))
	}

	return errors.Join(errs...)
}

// StorePath resolves the credential store location
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if c.Store.Backend == BackendSQLite {
		return filepath.Join(dir, "nvs.db"), nil
	}
	return filepath.Join(dir, "nvs"), nil
}

// SignalPins returns the default wiring with configured overrides applied
func (c *Config) SignalPins() (signals.Pins, error) {
	pins := signals.DefaultPins()
	for name, pin := range c.Signals.Pins {
		ch, err := signals.ParseChannel(name)
		if err != nil {
			return nil, err
		}
		if pin < 0 {
			return nil, fmt.Errorf("%s: invalid pin %d", name, pin)
		}
		pins[ch] = pin
	}
	return pins, nil
}
