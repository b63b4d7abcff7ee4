package credstore

import "fmt"

const (
	// MaxNetworkNameLen is the maximum network name (SSID) length in bytes
	MaxNetworkNameLen = 32

	// MaxSecretLen is the maximum secret (passphrase) length in bytes
	MaxSecretLen = 64
)

// Pair is a network name and the secret used to join it.
// An empty NetworkName means "no stored pair".
type Pair struct {
	NetworkName string `yaml:"ssid" json:"ssid"`
	Secret      string `yaml:"password" json:"-"`
}

// Present reports whether the pair names a network.
func (p Pair) Present() bool {
	return p.NetworkName != ""
}

// Truncated returns a copy of the pair cut to MaxNetworkNameLen and
// MaxSecretLen bytes.
func (p Pair) Truncated() Pair {
	return Pair{
		NetworkName: truncate(p.NetworkName, MaxNetworkNameLen),
		Secret:      truncate(p.Secret, MaxSecretLen),
	}
}

// String never includes the secret.
func (p Pair) String() string {
	if !p.Present() {
		return "<none>"
	}
	return fmt.Sprintf("%q (secret: %d bytes)", p.NetworkName, len(p.Secret))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
