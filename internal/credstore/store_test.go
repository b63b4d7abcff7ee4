package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every backend
func backends(t *testing.T) map[string]Backend {
	t.Helper()

	sqlite, err := NewSQLiteBackend(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   NewFileBackend(filepath.Join(t.TempDir(), "nvs")),
		"sqlite": sqlite,
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := New(backend)

			pair, ok := store.Load()
			assert.False(t, ok)
			assert.Equal(t, Pair{}, pair)
		})
	}
}

func TestStore_LoadIdempotent(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := New(backend)
			require.NoError(t, store.Save(Pair{NetworkName: "HomeNet", Secret: "hunter22"}))

			first, ok1 := store.Load()
			second, ok2 := store.Load()
			assert.Equal(t, ok1, ok2)
			assert.Equal(t, first, second)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := New(backend)
			require.NoError(t, store.Save(Pair{NetworkName: "HomeNet", Secret: "hunter22"}))

			pair, ok := store.Load()
			require.True(t, ok)
			assert.Equal(t, Pair{NetworkName: "HomeNet", Secret: "hunter22"}, pair)
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := New(backend)
			require.NoError(t, store.Save(Pair{NetworkName: "First", Secret: "one"}))
			require.NoError(t, store.Save(Pair{NetworkName: "Second", Secret: "two"}))

			pair, ok := store.Load()
			require.True(t, ok)
			assert.Equal(t, "Second", pair.NetworkName)
			assert.Equal(t, "two", pair.Secret)
		})
	}
}

func TestStore_Truncation(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := New(backend)
			longName := strings.Repeat("n", 40)
			longSecret := strings.Repeat("s", 70)

			require.NoError(t, store.Save(Pair{NetworkName: longName, Secret: longSecret}))

			pair, ok := store.Load()
			require.True(t, ok)
			assert.Equal(t, longName[:MaxNetworkNameLen], pair.NetworkName)
			assert.Equal(t, longSecret[:MaxSecretLen], pair.Secret)
		})
	}
}

func TestStore_EmptyNameIsAbsent(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := New(backend)
			require.NoError(t, store.Save(Pair{NetworkName: "", Secret: "orphan"}))

			_, ok := store.Load()
			assert.False(t, ok)
		})
	}
}

func TestStore_WritesWifiConfigNamespace(t *testing.T) {
	assert.Equal(t, "wifi_config", DefaultNamespace)

	backend := NewMemoryBackend()
	require.NoError(t, New(backend).Save(Pair{NetworkName: "HomeNet", Secret: "hunter22"}))

	ns, err := backend.Open(DefaultNamespace, true)
	require.NoError(t, err)
	defer func() { _ = ns.Close() }()

	name, err := ns.GetString(KeyNetworkName)
	require.NoError(t, err)
	assert.Equal(t, "HomeNet", name)
	secret, err := ns.GetString(KeySecret)
	require.NoError(t, err)
	assert.Equal(t, "hunter22", secret)
}

func TestStore_MissingSecretIsOpenNetwork(t *testing.T) {
	backend := NewMemoryBackend()
	ns, err := backend.Open(DefaultNamespace, false)
	require.NoError(t, err)
	require.NoError(t, ns.SetString(KeyNetworkName, "CafeWiFi"))
	require.NoError(t, ns.Commit())

	pair, ok := New(backend).Load()
	require.True(t, ok)
	assert.Equal(t, Pair{NetworkName: "CafeWiFi"}, pair)
}

func TestStore_SaveFailure(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend)
	require.NoError(t, store.Save(Pair{NetworkName: "Before", Secret: "kept"}))

	backend.FailCommits(fmt.Errorf("write: %w", syscall.ENOSPC))
	err := store.Save(Pair{NetworkName: "After", Secret: "lost"})
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
	assert.True(t, IsFull(err))
	assert.False(t, IsUnavailable(err))

	// Neither field changed
	pair, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, Pair{NetworkName: "Before", Secret: "kept"}, pair)
}

func TestStore_SaveUnavailable(t *testing.T) {
	backend := NewMemoryBackend()
	backend.FailCommits(errors.New("flash not initialised"))

	err := New(backend).Save(Pair{NetworkName: "x"})
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))

	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "commit", se.Op)
}

func TestStore_CorruptFileIsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultNamespace+".yaml"), []byte("{not: [yaml"), 0600))

	_, ok := New(NewFileBackend(dir)).Load()
	assert.False(t, ok)
}

func TestFileBackend_PersistsAcrossInstances(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nvs")
	require.NoError(t, New(NewFileBackend(dir)).Save(Pair{NetworkName: "HomeNet", Secret: "hunter22"}))

	pair, ok := New(NewFileBackend(dir)).Load()
	require.True(t, ok)
	assert.Equal(t, "HomeNet", pair.NetworkName)

	info, err := os.Stat(filepath.Join(dir, DefaultNamespace+".yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSQLiteBackend_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")

	first, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	require.NoError(t, New(first).Save(Pair{NetworkName: "HomeNet", Secret: "hunter22"}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	pair, ok := New(second).Load()
	require.True(t, ok)
	assert.Equal(t, Pair{NetworkName: "HomeNet", Secret: "hunter22"}, pair)
}

func TestNamespace_ReadOnly(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, New(backend).Save(Pair{NetworkName: "x"}))

	ns, err := backend.Open(DefaultNamespace, true)
	require.NoError(t, err)
	assert.ErrorIs(t, ns.SetString(KeyNetworkName, "y"), ErrReadOnly)
	assert.ErrorIs(t, ns.Commit(), ErrReadOnly)
}

func TestNamespace_PendingNotVisibleUntilCommit(t *testing.T) {
	backend := NewMemoryBackend()
	ns, err := backend.Open(DefaultNamespace, false)
	require.NoError(t, err)
	require.NoError(t, ns.SetString(KeyNetworkName, "Staged"))

	_, err = backend.Open(DefaultNamespace, true)
	assert.ErrorIs(t, err, ErrNamespaceNotFound)

	require.NoError(t, ns.Commit())
	_, err = backend.Open(DefaultNamespace, true)
	assert.NoError(t, err)
}

func TestPair(t *testing.T) {
	assert.False(t, Pair{}.Present())
	assert.True(t, Pair{NetworkName: "a"}.Present())
	assert.Equal(t, "<none>", Pair{}.String())
	assert.NotContains(t, Pair{NetworkName: "a", Secret: "topsecret"}.String(), "topsecret")
}
