// Package plain implements a transaction that is authenticated by the host
// rather than by a signature.
//
// The local host trusts the sender provided by the caller, which is enough to
// drive the contracts from a command line or a test.
package plain

import (
	"encoding/binary"
	"hash"
	"io"
	"sort"

	"github.com/minio/sha256-simd"
	"go.dedis.ch/tally/core/access"
	"go.dedis.ch/tally/core/txn"
	"golang.org/x/xerrors"
)

// Transaction is a transaction sent by a known address. It can contain
// arguments.
//
// - implements txn.Transaction
type Transaction struct {
	nonce    uint64
	identity access.Address
	args     map[string][]byte
	hash     []byte
}

type template struct {
	Transaction

	hashFactory func() hash.Hash
}

// TransactionOption is the type of options to create a transaction.
type TransactionOption func(*template)

// WithArg is an option to set an argument with the key and the value.
func WithArg(key string, value []byte) TransactionOption {
	return func(tmpl *template) {
		tmpl.args[key] = value
	}
}

// WithArgs is an option to set a list of arguments.
func WithArgs(args ...txn.Arg) TransactionOption {
	return func(tmpl *template) {
		for _, arg := range args {
			tmpl.args[arg.Key] = arg.Value
		}
	}
}

// WithHashFactory is an option to set a different hash factory when creating a
// transaction.
func WithHashFactory(f func() hash.Hash) TransactionOption {
	return func(tmpl *template) {
		tmpl.hashFactory = f
	}
}

// NewTransaction creates a new transaction with the provided nonce and sender.
func NewTransaction(nonce uint64, sender access.Address, opts ...TransactionOption) (Transaction, error) {
	tmpl := template{
		Transaction: Transaction{
			nonce:    nonce,
			identity: sender,
			args:     make(map[string][]byte),
		},
		hashFactory: sha256.New,
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	h := tmpl.hashFactory()
	err := tmpl.Fingerprint(h)
	if err != nil {
		return tmpl.Transaction, xerrors.Errorf("couldn't fingerprint tx: %v", err)
	}

	tmpl.hash = h.Sum(nil)

	return tmpl.Transaction, nil
}

// GetID implements txn.Transaction. It returns the ID of the transaction.
func (t Transaction) GetID() []byte {
	return append([]byte{}, t.hash...)
}

// GetNonce implements txn.Transaction. It returns the nonce of the
// transaction.
func (t Transaction) GetNonce() uint64 {
	return t.nonce
}

// GetIdentity implements txn.Transaction. It returns the address of the
// sender.
func (t Transaction) GetIdentity() access.Identity {
	return t.identity
}

// GetArgs returns the sorted list of arguments available.
func (t Transaction) GetArgs() []string {
	args := make([]string, 0, len(t.args))
	for key := range t.args {
		args = append(args, key)
	}

	sort.Strings(args)

	return args
}

// GetArg implements txn.Transaction. It returns the value of the argument if it
// is set, otherwise nil.
func (t Transaction) GetArg(key string) []byte {
	return t.args[key]
}

// Fingerprint writes a deterministic binary representation of the
// transaction.
func (t Transaction) Fingerprint(w io.Writer) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, t.nonce)

	_, err := w.Write(buffer)
	if err != nil {
		return xerrors.Errorf("couldn't write nonce: %v", err)
	}

	err = writeField(w, []byte(t.identity))
	if err != nil {
		return xerrors.Errorf("couldn't write identity: %v", err)
	}

	for _, key := range t.GetArgs() {
		err = writeField(w, []byte(key))
		if err != nil {
			return xerrors.Errorf("couldn't write arg: %v", err)
		}

		err = writeField(w, t.args[key])
		if err != nil {
			return xerrors.Errorf("couldn't write arg: %v", err)
		}
	}

	return nil
}

func writeField(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(len(data)))

	_, err := w.Write(length)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// transactionManager is a manager to create plain transactions for a sender. It
// manages the nonce by itself.
//
// - implements txn.Manager
type transactionManager struct {
	sender access.Address
	nonce  uint64
}

// NewManager creates a new transaction manager for the sender, starting from
// the given nonce.
func NewManager(sender access.Address, nonce uint64) txn.Manager {
	return &transactionManager{
		sender: sender,
		nonce:  nonce,
	}
}

// Make implements txn.Manager. It creates a transaction populated with the
// arguments and increases the nonce.
func (mgr *transactionManager) Make(args ...txn.Arg) (txn.Transaction, error) {
	tx, err := NewTransaction(mgr.nonce, mgr.sender, WithArgs(args...))
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	mgr.nonce++

	return tx, nil
}
