package kv

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"go.dedis.ch/tally"
	"golang.org/x/xerrors"
)

// bucketMarker is the first byte of the keys that record the existence of a
// bucket. The keys of the items start with dataMarker.
const (
	bucketMarker byte = 0
	dataMarker   byte = 1
)

// levelDB is an adapter of the KV store using goleveldb. The database has a
// flat key space so a bucket is a prefix made of the length of its name and
// the name itself.
//
// - implements kv.DB
type levelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens a new database at the given path with the goleveldb engine.
func NewLevelDB(path string) (DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to open db: %v", err)
	}

	return levelDB{db: db}, nil
}

// View implements kv.DB. It reads from a snapshot of the database so that the
// callback sees a consistent state. It returns an error if the bucket does not
// exist.
func (ldb levelDB) View(bucket []byte, fn func(Bucket) error) error {
	snap, err := ldb.db.GetSnapshot()
	if err != nil {
		return xerrors.Errorf("failed to get snapshot: %v", err)
	}

	defer snap.Release()

	found, err := snap.Has(bucketKey(bucket), nil)
	if err != nil {
		return xerrors.Errorf("failed to read bucket: %v", err)
	}

	if !found {
		return xerrors.Errorf("bucket '%x' not found", bucket)
	}

	b := newLevelBucket(bucket, snap)

	err = fn(b)
	if err != nil {
		return err
	}

	return b.failure()
}

// Update implements kv.DB. The writes of the callback are collected in a batch
// which is written at once if the callback succeeds.
func (ldb levelDB) Update(bucket []byte, fn func(Bucket) error) error {
	if len(bucket) == 0 {
		return xerrors.New("failed to create bucket: bucket name required")
	}

	b := &levelWriter{
		levelBucket: newLevelBucket(bucket, ldb.db),
		batch:       new(leveldb.Batch),
		pending: make(map[string][]byte),
	}

	b.batch.Put(bucketKey(bucket), []byte{})

	err := fn(b)
	if err != nil {
		return err
	}

	err = b.failure()
	if err != nil {
		return err
	}

	err = ldb.db.Write(b.batch, nil)
	if err != nil {
		return xerrors.Errorf("failed to write batch: %v", err)
	}

	return nil
}

// Close implements kv.DB. It closes the database.
func (ldb levelDB) Close() error {
	return ldb.db.Close()
}

// getter is the common read primitive of the database and its snapshots.
type getter interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
}

// levelBucket is a read-only bucket. A read error other than a missing key
// is kept and returned by the transaction.
//
// - implements kv.Bucket
type levelBucket struct {
	prefix []byte
	reader getter
	err    *error
}

func newLevelBucket(name []byte, reader getter) levelBucket {
	return levelBucket{
		prefix: dataPrefix(name),
		reader: reader,
		err:    new(error),
	}
}

// Get implements kv.Bucket. It returns the value of the key, or nil if it does
// not exist or if it cannot be read.
func (b levelBucket) Get(key []byte) []byte {
	value, err := b.reader.Get(b.makeKey(key), nil)
	if err == leveldb.ErrNotFound {
		return nil
	}

	if err != nil {
		tally.Logger.Warn().Err(err).Hex("key", key).Msg("failed to read key")

		if *b.err == nil {
			*b.err = err
		}

		return nil
	}

	return value
}

// Set implements kv.Bucket. It always returns an error as the bucket is used in
// a read-only transaction.
func (b levelBucket) Set(key, value []byte) error {
	return xerrors.New("read-only transaction")
}

// Delete implements kv.Bucket. It always returns an error as the bucket is
// used in a read-only transaction.
func (b levelBucket) Delete(key []byte) error {
	return xerrors.New("read-only transaction")
}

// failure returns the first read error of the transaction, if any.
func (b levelBucket) failure() error {
	if *b.err != nil {
		return xerrors.Errorf("failed to read key: %v", *b.err)
	}

	return nil
}

func (b levelBucket) makeKey(key []byte) []byte {
	return append(append([]byte{}, b.prefix...), key...)
}

// levelWriter is a bucket of a writable transaction. Reads see the pending
// writes of the same transaction.
//
// - implements kv.Bucket
type levelWriter struct {
	levelBucket

	batch *leveldb.Batch
	// pending maps a key to its new value, a nil value meaning a deletion.
	pending map[string][]byte
}

// Get implements kv.Bucket. It returns the pending value if the key has been
// updated in the transaction, otherwise the value of the database.
func (b *levelWriter) Get(key []byte) []byte {
	value, found := b.pending[string(key)]
	if found {
		return value
	}

	return b.levelBucket.Get(key)
}

// Set implements kv.Bucket. It adds the write to the batch.
func (b *levelWriter) Set(key, value []byte) error {
	b.pending[string(key)] = append([]byte{}, value...)
	b.batch.Put(b.makeKey(key), value)

	return nil
}

// Delete implements kv.Bucket. It adds the deletion to the batch.
func (b *levelWriter) Delete(key []byte) error {
	b.pending[string(key)] = nil
	b.batch.Delete(b.makeKey(key))

	return nil
}

func bucketKey(name []byte) []byte {
	return append([]byte{bucketMarker}, name...)
}

func dataPrefix(name []byte) []byte {
	prefix := make([]byte, 3, 3+len(name))
	prefix[0] = dataMarker
	binary.BigEndian.PutUint16(prefix[1:], uint16(len(name)))

	return append(prefix, name...)
}
