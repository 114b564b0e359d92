// Package host implements a local host that runs the native contracts against
// a key/value database.
//
// The host serializes the calls. Every transaction is executed on a staging
// snapshot that is committed, together with the new block height, in a single
// database transaction when the execution is accepted. A rejected transaction
// only advances the height.
package host

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/tally"
	"go.dedis.ch/tally/core/execution"
	"go.dedis.ch/tally/core/execution/native"
	"go.dedis.ch/tally/core/store/kv"
	"go.dedis.ch/tally/core/store/mem"
	"go.dedis.ch/tally/core/store/prefixed"
	"go.dedis.ch/tally/core/txn"
	"golang.org/x/xerrors"
)

// DefaultBucket is the bucket of the database where the state is stored.
var DefaultBucket = []byte("state")

// heightKey stores the height of the last block. It is shorter than the keys
// of the contracts which are digests.
var heightKey = []byte("height")

var promHeight = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "tally_host_height",
	Help: "height of the last block committed by the host",
})

func init() {
	tally.PromCollectors = append(tally.PromCollectors, promHeight)
}

// Option is the type of option to configure a host.
type Option func(*Host)

// WithGenesisHeight sets the height of the block before the first
// transaction. The option has no effect if the database already has a block.
func WithGenesisHeight(height uint64) Option {
	return func(h *Host) {
		h.genesis = height
	}
}

// WithClock sets the function that returns the time of a new block.
func WithClock(clock func() time.Time) Option {
	return func(h *Host) {
		h.clock = clock
	}
}

// WithLogger sets the logger of the host.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// Host runs transactions and queries against the state stored in a database.
type Host struct {
	sync.Mutex

	db      kv.DB
	exec    execution.Service
	genesis uint64
	clock   func() time.Time
	logger  zerolog.Logger
	watcher *watcher
}

// NewHost creates a new host on top of the database. It creates the state
// bucket if it does not exist yet.
func NewHost(db kv.DB, exec execution.Service, opts ...Option) (*Host, error) {
	h := &Host{
		db:      db,
		exec:    exec,
		clock:   time.Now,
		logger:  tally.Logger.With().Str("service", "host").Logger(),
		watcher: newWatcher(),
	}

	for _, opt := range opts {
		opt(h)
	}

	err := db.Update(DefaultBucket, func(b kv.Bucket) error {
		if b.Get(heightKey) == nil {
			return b.Set(heightKey, encodeHeight(h.genesis))
		}

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to initialize state: %v", err)
	}

	return h, nil
}

// GetHeight returns the height of the last block.
func (h *Host) GetHeight() (uint64, error) {
	value, err := kv.NewReader(h.db, DefaultBucket).Get(heightKey)
	if err != nil {
		return 0, xerrors.Errorf("failed to read height: %v", err)
	}

	if len(value) != 8 {
		return 0, xerrors.Errorf("invalid height of length %d", len(value))
	}

	return binary.BigEndian.Uint64(value), nil
}

// Execute runs the transaction in a new block and returns the result. The
// error is only set when the host could not execute the transaction, which
// then leaves the state untouched.
func (h *Host) Execute(tx txn.Transaction) (execution.Result, error) {
	h.Lock()
	defer h.Unlock()

	id := xid.New()

	height, err := h.GetHeight()
	if err != nil {
		return execution.Result{}, err
	}

	block := execution.Block{
		Height: height + 1,
		Time:   h.clock(),
	}

	step := execution.Step{
		Current: tx,
		Block:   block,
	}

	contract := string(tx.GetArg(native.ContractArg))

	snap := mem.NewSnapshot(kv.NewReader(h.db, DefaultBucket))

	res, err := h.exec.Execute(prefixed.NewSnapshot(contract, snap), step)
	if err != nil {
		return execution.Result{}, xerrors.Errorf("failed to execute tx: %v", err)
	}

	err = h.db.Update(DefaultBucket, func(b kv.Bucket) error {
		if res.Accepted {
			err := snap.Apply(b)
			if err != nil {
				return err
			}
		}

		return b.Set(heightKey, encodeHeight(block.Height))
	})
	if err != nil {
		return execution.Result{}, xerrors.Errorf("failed to commit: %v", err)
	}

	promHeight.Set(float64(block.Height))

	h.logger.Info().
		Str("execution", id.String()).
		Str("contract", contract).
		Uint64("height", block.Height).
		Bool("accepted", res.Accepted).
		Str("reason", res.Message).
		Msgf("transaction %x executed", tx.GetID())

	h.watcher.notify(Event{
		ID:     id,
		TxID:   tx.GetID(),
		Block:  block,
		Result: res,
	})

	return res, nil
}

// Watch adds an observer that is notified after each committed transaction.
func (h *Host) Watch(obs Observer) {
	h.watcher.add(obs)
}

// Unwatch removes the observer.
func (h *Host) Unwatch(obs Observer) {
	h.watcher.remove(obs)
}

// Query runs a read-only request against the committed state of the contract.
func (h *Host) Query(contract string, args map[string][]byte) ([]byte, error) {
	h.Lock()
	defer h.Unlock()

	height, err := h.GetHeight()
	if err != nil {
		return nil, err
	}

	req := execution.Request{
		Block: execution.Block{
			Height: height,
			Time:   h.clock(),
		},
		Args: args,
	}

	reader := prefixed.NewReadable(contract, kv.NewReader(h.db, DefaultBucket))

	data, err := h.exec.Query(reader, contract, req)
	if err != nil {
		return nil, xerrors.Errorf("failed to query '%s': %w", contract, err)
	}

	return data, nil
}

func encodeHeight(height uint64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, height)

	return buffer
}
