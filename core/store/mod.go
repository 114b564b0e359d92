// Package store defines the primitives of a simple key/value storage.
//
// A contract never talks to a database directly: the host hands it a snapshot
// of the state for the duration of one call and decides afterwards whether the
// writes are kept.
package store

import "golang.org/x/xerrors"

// Readable is the interface for a readable store. A missing key returns a nil
// value and no error.
type Readable interface {
	Get(key []byte) ([]byte, error)
}

// Writable is the interface for a writable store.
type Writable interface {
	Set(key []byte, value []byte) error

	Delete(key []byte) error
}

// Snapshot is a state of the store that can be read and write independently. A
// write is applied only to the snapshot reference.
type Snapshot interface {
	Readable
	Writable
}

// UpdateFn is the callback of a read-modify-write. It receives the current
// value of the key, nil if it does not exist, and returns the new value.
type UpdateFn func(current []byte) ([]byte, error)

// Update reads the key, applies the function and writes back the result. The
// snapshot is not touched if the function returns an error.
func Update(snap Snapshot, key []byte, fn UpdateFn) ([]byte, error) {
	current, err := snap.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("failed to read key '%x': %v", key, err)
	}

	next, err := fn(current)
	if err != nil {
		return nil, xerrors.Errorf("update failed: %w", err)
	}

	err = snap.Set(key, next)
	if err != nil {
		return nil, xerrors.Errorf("failed to write key '%x': %v", key, err)
	}

	return next, nil
}
