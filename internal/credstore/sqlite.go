package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores namespaces as rows in a single SQLite database.
type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteBackend opens (creating if needed) the database at dbPath.
// Use ":memory:" for a volatile database.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared across handles
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db}
	if err := b.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Open implements Backend
func (b *SQLiteBackend) Open(namespace string, readOnly bool) (Namespace, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.db.Query("SELECT key, value FROM kv WHERE namespace = ?", namespace)
	if err != nil {
		return nil, fmt.Errorf("query namespace %s: %w", namespace, err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan namespace %s: %w", namespace, err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read namespace %s: %w", namespace, err)
	}

	if len(values) == 0 && readOnly {
		return nil, ErrNamespaceNotFound
	}

	return &sqliteNamespace{
		stagedNamespace: newStagedNamespace(values, readOnly),
		backend:         b,
		name:            namespace,
	}, nil
}

type sqliteNamespace struct {
	stagedNamespace
	backend *SQLiteBackend
	name    string
}

func (n *sqliteNamespace) Commit() error {
	if n.readOnly {
		return ErrReadOnly
	}
	n.backend.mu.Lock()
	defer n.backend.mu.Unlock()

	ctx := context.Background()
	tx, err := n.backend.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for k, v := range n.pending {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (namespace, key, value) VALUES (?, ?, ?)
			 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value`,
			n.name, k, v,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write key %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	n.values = n.merged()
	n.pending = make(map[string]string)
	return nil
}

func (n *sqliteNamespace) Close() error {
	return nil
}
