package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a discovered provisioning device on the network
type Device struct {
	// Instance is the advertised service instance name
	Instance string

	// Hostname is the mDNS hostname (e.g., "wifiprov-3f2a.local.")
	Hostname string

	// IP is the device address, IPv4 preferred
	IP string

	// Port is the portal HTTP port
	Port int

	// Metadata contains the TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s", d.Instance, d.Hostname, net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
}

// BaseURL returns the portal base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// State returns the advertised machine state, if any
func (d *Device) State() string {
	return d.GetMetadata(TxtState)
}
