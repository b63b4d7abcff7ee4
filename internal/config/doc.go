// Package config loads the wifiprov service configuration.
//
// The configuration is a YAML file stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/wifiprov/config.yaml or $HOME/.config/wifiprov/config.yaml
//   - macOS: $HOME/.config/wifiprov/config.yaml
//   - Windows: %LOCALAPPDATA%\wifiprov\config.yaml
//
// A missing file is not an error; Load returns Default(). Values present in
// the file override the defaults field by field.
//
// # Example
//
//	log:
//	  level: info
//	  file: /var/log/wifiprov.log
//	store:
//	  backend: sqlite
//	network:
//	  driver: nmcli
//	  interface: wlan0
//	portal:
//	  addr: ":80"
//	monitor:
//	  addr: "127.0.0.1:8081"
//	signals:
//	  backend: sysfs
//	  pins:
//	    relay: 4
//	    wifi-led: 32
//
// # Security
//
// WiFi credentials are never stored here; they live in the credential store.
// The simulated driver's network table is the one exception and is only
// meant for development.
package config
