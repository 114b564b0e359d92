// Package kv defines the abstraction for a key/value database.
//
// The package also implements two engines: the default one is using bbolt
// (https://github.com/etcd-io/bbolt) and the second one is using goleveldb
// (https://github.com/syndtr/goleveldb) where buckets are emulated with key
// prefixes.
package kv

import (
	"go.dedis.ch/tally/core/store"
	"golang.org/x/xerrors"
)

// Bucket is a general interface to operate on a database bucket.
type Bucket interface {
	// Get reads the key from the bucket and returns the value, or nil if the
	// key does not exist.
	Get(key []byte) []byte

	// Set assigns the value to the provided key.
	Set(key, value []byte) error

	// Delete deletes the key from the bucket.
	Delete(key []byte) error
}

// DB is a general interface to operate over a key/value database.
type DB interface {
	// View executes the provided read-only transaction in the context of the
	// bucket. It returns an error if the bucket does not exist.
	View(bucket []byte, fn func(Bucket) error) error

	// Update executes the provided writable transaction in the context of the
	// bucket which is created if necessary. Either all the writes of the
	// callback are applied or none when it returns an error.
	Update(bucket []byte, fn func(Bucket) error) error

	// Close closes the database and free the resources.
	Close() error
}

// Engine is the name of a database implementation.
type Engine string

const (
	// EngineBolt is the bbolt engine.
	EngineBolt Engine = "bbolt"

	// EngineLevel is the goleveldb engine.
	EngineLevel Engine = "leveldb"
)

// Open opens the database at the path with the given engine.
func Open(engine Engine, path string) (DB, error) {
	switch engine {
	case EngineBolt, "":
		return New(path)
	case EngineLevel:
		return NewLevelDB(path)
	default:
		return nil, xerrors.Errorf("unknown engine '%s'", engine)
	}
}

// reader is a readable store over a bucket of the database.
//
// - implements store.Readable
type reader struct {
	db     DB
	bucket []byte
}

// NewReader returns a readable store that reads the keys of the bucket, each
// in its own read-only transaction.
func NewReader(db DB, bucket []byte) store.Readable {
	return reader{
		db:     db,
		bucket: bucket,
	}
}

// Get implements store.Readable. It returns a copy of the value as the buffer
// of the database is only valid during the transaction.
func (r reader) Get(key []byte) ([]byte, error) {
	var value []byte

	err := r.db.View(r.bucket, func(b Bucket) error {
		v := b.Get(key)
		if v != nil {
			value = append([]byte{}, v...)
		}

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to read db: %v", err)
	}

	return value, nil
}
