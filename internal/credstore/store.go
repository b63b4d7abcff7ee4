package credstore

import (
	"github.com/muurk/wifiprov/internal/logging"
	"go.uber.org/zap"
)

const (
	// DefaultNamespace is the storage namespace holding the credential pair
	DefaultNamespace = "wifi_config"

	// KeyNetworkName is the key holding the network name
	KeyNetworkName = "ssid"

	// KeySecret is the key holding the secret
	KeySecret = "password"
)

// Store reads and writes the credential pair through a Backend.
// It holds no copy of the pair between calls.
type Store struct {
	backend   Backend
	namespace string
}

// New creates a Store over backend using the default namespace
func New(backend Backend) *Store {
	return &Store{backend: backend, namespace: DefaultNamespace}
}

// Load returns the stored pair, or false when none is stored.
// Read errors are logged and reported as absence.
func (s *Store) Load() (Pair, bool) {
	ns, err := s.backend.Open(s.namespace, true)
	if err != nil {
		logging.Debug("No stored credentials",
			zap.String("namespace", s.namespace),
			zap.Error(err),
		)
		return Pair{}, false
	}
	defer func() { _ = ns.Close() }()

	name, err := ns.GetString(KeyNetworkName)
	if err != nil || name == "" {
		logging.Debug("Stored network name missing",
			zap.String("namespace", s.namespace),
			zap.Error(err),
		)
		return Pair{}, false
	}

	// A missing secret is an open network
	secret, err := ns.GetString(KeySecret)
	if err != nil {
		secret = ""
	}

	return Pair{NetworkName: name, Secret: secret}.Truncated(), true
}

// Save truncates the pair to its bounds and durably writes both fields.
// The returned error, if any, is a *StoreError.
func (s *Store) Save(pair Pair) error {
	pair = pair.Truncated()

	ns, err := s.backend.Open(s.namespace, false)
	if err != nil {
		return newStoreError("open", err)
	}
	defer func() { _ = ns.Close() }()

	if err := ns.SetString(KeyNetworkName, pair.NetworkName); err != nil {
		return newStoreError("set", err)
	}
	if err := ns.SetString(KeySecret, pair.Secret); err != nil {
		return newStoreError("set", err)
	}
	if err := ns.Commit(); err != nil {
		return newStoreError("commit", err)
	}

	logging.Info("Credentials saved",
		zap.String("namespace", s.namespace),
		zap.String("ssid", pair.NetworkName),
	)
	return nil
}
