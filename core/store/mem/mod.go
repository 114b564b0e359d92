// Package mem implements an in-memory snapshot that stages the updates above a
// readable parent.
//
// The host runs a contract against a staged snapshot and only applies the
// updates to the persistent storage when the execution is accepted, which
// gives an all-or-nothing behaviour to every call.
package mem

import (
	"sort"

	"go.dedis.ch/tally/core/store"
	"golang.org/x/xerrors"
)

// item is an update of a key. A deleted item hides the value of the parent.
type item struct {
	value   []byte
	deleted bool
}

// Snapshot is an in-memory snapshot. It saves the updates in an internal store
// and only keeps the updates of the current snapshot. When reading, it looks up
// the parent if the key has not been updated.
//
// - implements store.Snapshot
type Snapshot struct {
	parent store.Readable
	store  map[string]item
}

// NewSnapshot returns a new empty snapshot on top of the parent. The parent can
// be nil.
func NewSnapshot(parent store.Readable) *Snapshot {
	return &Snapshot{
		parent: parent,
		store:  make(map[string]item),
	}
}

// Get implements store.Readable. It returns the staged value if the key has
// been updated, otherwise the value of the parent.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	it, found := s.store[string(key)]
	if found {
		if it.deleted {
			return nil, nil
		}

		return append([]byte{}, it.value...), nil
	}

	if s.parent == nil {
		return nil, nil
	}

	value, err := s.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("failed to read parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable. It stages the value for the key.
func (s *Snapshot) Set(key, value []byte) error {
	s.store[string(key)] = item{value: append([]byte{}, value...)}

	return nil
}

// Delete implements store.Writable. It stages the deletion of the key.
func (s *Snapshot) Delete(key []byte) error {
	s.store[string(key)] = item{deleted: true}

	return nil
}

// Len returns the number of staged updates.
func (s *Snapshot) Len() int {
	return len(s.store)
}

// Apply writes the staged updates to the target in the order of the keys.
func (s *Snapshot) Apply(target store.Writable) error {
	keys := make([]string, 0, len(s.store))
	for key := range s.store {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		it := s.store[key]

		var err error
		if it.deleted {
			err = target.Delete([]byte(key))
		} else {
			err = target.Set([]byte(key), it.value)
		}

		if err != nil {
			return xerrors.Errorf("failed to apply key '%x': %v", key, err)
		}
	}

	return nil
}
