package credstore

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

var (
	// ErrNotFound is returned by Namespace.GetString for a key that was never written
	ErrNotFound = errors.New("key not found")

	// ErrNamespaceNotFound is returned by Backend.Open in read-only mode when
	// nothing was ever committed to the namespace
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrReadOnly is returned when writing through a read-only namespace handle
	ErrReadOnly = errors.New("namespace opened read-only")
)

// StoreErrorKind categorises persistence failures
type StoreErrorKind int

const (
	// StoreUnavailable indicates the medium could not be opened, read or written
	StoreUnavailable StoreErrorKind = iota
	// StoreFull indicates the medium has no room left for the write
	StoreFull
)

// String returns a human-readable name for the error kind
func (k StoreErrorKind) String() string {
	switch k {
	case StoreUnavailable:
		return "storage unavailable"
	case StoreFull:
		return "storage full"
	default:
		return fmt.Sprintf("StoreErrorKind(%d)", k)
	}
}

// StoreError reports a failed Save.
type StoreError struct {
	Kind StoreErrorKind
	Op   string // open, set, commit
	Err  error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *StoreError) Unwrap() error {
	return e.Err
}

func newStoreError(op string, err error) *StoreError {
	return &StoreError{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) StoreErrorKind {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return StoreFull
	}
	// SQLITE_FULL surfaces as "database or disk is full"
	if strings.Contains(strings.ToLower(err.Error()), "is full") {
		return StoreFull
	}
	return StoreUnavailable
}

// IsStoreError checks if an error is a StoreError
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsFull checks if an error reports a full storage medium
func IsFull(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind == StoreFull
	}
	return false
}

// IsUnavailable checks if an error reports an unavailable storage medium
func IsUnavailable(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind == StoreUnavailable
	}
	return false
}
