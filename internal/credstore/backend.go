package credstore

import (
	"maps"
	"sync"
)

// Backend is namespace-scoped durable string storage.
type Backend interface {
	// Open returns a handle on the namespace. A read-only open of a
	// namespace that was never committed returns ErrNamespaceNotFound.
	Open(namespace string, readOnly bool) (Namespace, error)
}

// Namespace is an open handle on one storage namespace.
// Writes are staged until Commit, which applies all of them or none.
type Namespace interface {
	GetString(key string) (string, error)
	SetString(key, value string) error
	Commit() error
	Close() error
}

// stagedNamespace holds a snapshot of the committed values plus pending writes.
// Backends embed it and supply their own commit.
type stagedNamespace struct {
	readOnly bool
	values   map[string]string
	pending  map[string]string
}

func newStagedNamespace(values map[string]string, readOnly bool) stagedNamespace {
	if values == nil {
		values = make(map[string]string)
	}
	return stagedNamespace{
		readOnly: readOnly,
		values:   values,
		pending:  make(map[string]string),
	}
}

func (n *stagedNamespace) GetString(key string) (string, error) {
	if v, ok := n.pending[key]; ok {
		return v, nil
	}
	if v, ok := n.values[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (n *stagedNamespace) SetString(key, value string) error {
	if n.readOnly {
		return ErrReadOnly
	}
	n.pending[key] = value
	return nil
}

// merged returns committed values overlaid with pending writes
func (n *stagedNamespace) merged() map[string]string {
	out := maps.Clone(n.values)
	maps.Copy(out, n.pending)
	return out
}

// MemoryBackend keeps namespaces in process memory.
type MemoryBackend struct {
	mu         sync.Mutex
	namespaces map[string]map[string]string
	commitErr  error
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{namespaces: make(map[string]map[string]string)}
}

// FailCommits makes every subsequent Commit return err (nil restores normal
// behavior). Used to exercise storage failure paths.
func (b *MemoryBackend) FailCommits(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commitErr = err
}

// Open implements Backend
func (b *MemoryBackend) Open(namespace string, readOnly bool) (Namespace, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, ok := b.namespaces[namespace]
	if !ok && readOnly {
		return nil, ErrNamespaceNotFound
	}
	return &memoryNamespace{
		stagedNamespace: newStagedNamespace(maps.Clone(values), readOnly),
		backend:         b,
		name:            namespace,
	}, nil
}

type memoryNamespace struct {
	stagedNamespace
	backend *MemoryBackend
	name    string
}

func (n *memoryNamespace) Commit() error {
	if n.readOnly {
		return ErrReadOnly
	}
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()

	if n.backend.commitErr != nil {
		return n.backend.commitErr
	}
	n.values = n.merged()
	n.pending = make(map[string]string)
	n.backend.namespaces[n.name] = maps.Clone(n.values)
	return nil
}

func (n *memoryNamespace) Close() error {
	return nil
}
