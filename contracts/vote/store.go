package vote

import (
	"encoding/binary"
	"math"

	"go.dedis.ch/tally/contracts/vote/types"
	"go.dedis.ch/tally/core/store"
	"go.dedis.ch/tally/serde"
	"golang.org/x/xerrors"
)

var (
	// tallyKey is the key of the global tally in single mode.
	tallyKey = []byte("tally")

	// sequenceKey is the key of the last box identifier in multi mode.
	sequenceKey = []byte("sequence")

	boxPrefix = []byte("box:")
)

// boxKey returns the key of the box with the identifier in multi mode.
func boxKey(id uint64) []byte {
	key := make([]byte, len(boxPrefix)+8)
	copy(key, boxPrefix)
	binary.BigEndian.PutUint64(key[len(boxPrefix):], id)

	return key
}

// boxStore reads and writes the records of the contract in a snapshot.
type boxStore struct {
	mode    Mode
	context serde.Context
}

func (s boxStore) keyOf(id uint64) []byte {
	if s.mode == ModeSingle {
		return tallyKey
	}

	return boxKey(id)
}

// isInstantiated returns true when the records of the mode already exist.
func (s boxStore) isInstantiated(snap store.Readable) (bool, error) {
	key := tallyKey
	if s.mode == ModeMulti {
		key = sequenceKey
	}

	value, err := snap.Get(key)
	if err != nil {
		return false, xerrors.Errorf("failed to read state: %v", err)
	}

	return value != nil, nil
}

// load returns the box with the identifier. The identifier is ignored in
// single mode.
func (s boxStore) load(snap store.Readable, id uint64) (types.VoteBox, error) {
	data, err := snap.Get(s.keyOf(id))
	if err != nil {
		return types.VoteBox{}, xerrors.Errorf("failed to read box: %v", err)
	}

	if data == nil {
		if s.mode == ModeSingle {
			return types.VoteBox{}, ErrNotInstantiated
		}

		return types.VoteBox{}, xerrors.Errorf("box %d: %w", id, ErrNotFound)
	}

	box, err := types.BoxOf(s.context, data)
	if err != nil {
		return types.VoteBox{}, xerrors.Errorf("failed to decode box: %v", err)
	}

	return box, nil
}

func (s boxStore) save(snap store.Writable, box types.VoteBox) error {
	data, err := box.Serialize(s.context)
	if err != nil {
		return xerrors.Errorf("failed to serialize box: %v", err)
	}

	err = snap.Set(s.keyOf(box.ID), data)
	if err != nil {
		return xerrors.Errorf("failed to write box: %v", err)
	}

	return nil
}

// initSequence stores the sequence of the box identifiers at zero.
func (s boxStore) initSequence(snap store.Writable) error {
	err := snap.Set(sequenceKey, make([]byte, 8))
	if err != nil {
		return xerrors.Errorf("failed to write sequence: %v", err)
	}

	return nil
}

// nextID increments the sequence and returns the new value.
func (s boxStore) nextID(snap store.Snapshot) (uint64, error) {
	var id uint64

	_, err := store.Update(snap, sequenceKey, func(value []byte) ([]byte, error) {
		if value == nil {
			return nil, ErrNotInstantiated
		}

		if len(value) != 8 {
			return nil, xerrors.Errorf("invalid sequence of length %d", len(value))
		}

		last := binary.BigEndian.Uint64(value)
		if last == math.MaxUint64 {
			return nil, xerrors.Errorf("sequence exhausted: %w", types.ErrOverflow)
		}

		id = last + 1

		next := make([]byte, 8)
		binary.BigEndian.PutUint64(next, id)

		return next, nil
	})

	if err != nil {
		return 0, xerrors.Errorf("failed to increment sequence: %w", err)
	}

	return id, nil
}
