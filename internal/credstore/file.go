package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileBackend stores each namespace as a YAML document under Dir.
type FileBackend struct {
	Dir string

	mu sync.Mutex
}

// NewFileBackend creates a backend rooted at dir. The directory is created
// on first commit.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

func (b *FileBackend) path(namespace string) string {
	return filepath.Join(b.Dir, namespace+".yaml")
}

// Open implements Backend
func (b *FileBackend) Open(namespace string, readOnly bool) (Namespace, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.read(namespace)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if readOnly {
				return nil, ErrNamespaceNotFound
			}
			values = nil
		} else {
			return nil, err
		}
	}

	return &fileNamespace{
		stagedNamespace: newStagedNamespace(values, readOnly),
		backend:         b,
		name:            namespace,
	}, nil
}

func (b *FileBackend) read(namespace string) (map[string]string, error) {
	data, err := os.ReadFile(b.path(namespace))
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse namespace %s: %w", namespace, err)
	}
	return values, nil
}

// write replaces the namespace file atomically: temp file, fsync, rename.
func (b *FileBackend) write(namespace string, values map[string]string) error {
	if err := os.MkdirAll(b.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal namespace %s: %w", namespace, err)
	}

	tmp, err := os.CreateTemp(b.Dir, "."+namespace+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, b.path(namespace)); err != nil {
		return fmt.Errorf("failed to replace namespace file: %w", err)
	}
	return nil
}

type fileNamespace struct {
	stagedNamespace
	backend *FileBackend
	name    string
}

func (n *fileNamespace) Commit() error {
	if n.readOnly {
		return ErrReadOnly
	}
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()

	values := n.merged()
	if err := n.backend.write(n.name, values); err != nil {
		return err
	}
	n.values = values
	n.pending = make(map[string]string)
	return nil
}

func (n *fileNamespace) Close() error {
	return nil
}
