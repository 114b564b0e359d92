// Package execution defines the primitives to execute a transaction against a
// store.
package execution

import (
	"fmt"
	"time"

	"go.dedis.ch/tally/core/store"
	"go.dedis.ch/tally/core/txn"
)

// Block is the context of the execution as seen by the contracts.
type Block struct {
	// Height is the index of the block that includes the transaction.
	Height uint64

	// Time is the timestamp of the block.
	Time time.Time
}

// Step is the context of a transaction execution.
type Step struct {
	// Previous are the transactions executed before the current one in the
	// same block.
	Previous []txn.Transaction

	// Current is the transaction being executed.
	Current txn.Transaction

	// Block is the block that includes the transaction.
	Block Block
}

// Attribute is a named value describing the outcome of an execution.
type Attribute struct {
	Key   string
	Value string
}

// String implements fmt.Stringer.
func (a Attribute) String() string {
	return fmt.Sprintf("%s=%s", a.Key, a.Value)
}

// Response is what a contract returns after a successful execution.
type Response struct {
	Attributes []Attribute
}

// NewResponse returns an empty response.
func NewResponse() Response {
	return Response{}
}

// With returns a copy of the response with the attribute appended.
func (r Response) With(key string, value fmt.Stringer) Response {
	return r.WithString(key, value.String())
}

// WithString returns a copy of the response with the attribute appended.
func (r Response) WithString(key, value string) Response {
	attrs := make([]Attribute, len(r.Attributes), len(r.Attributes)+1)
	copy(attrs, r.Attributes)

	r.Attributes = append(attrs, Attribute{Key: key, Value: value})

	return r
}

// Get returns the value of the first attribute with the key, or an empty
// string if it does not exist.
func (r Response) Get(key string) string {
	for _, attr := range r.Attributes {
		if attr.Key == key {
			return attr.Value
		}
	}

	return ""
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a change to the execution to explain why a transaction has
	// failed.
	Message string

	// Attributes are the attributes of the response when the transaction is
	// accepted.
	Attributes []Attribute
}

// Request is a read-only query to a contract.
type Request struct {
	// Block is the latest committed block.
	Block Block

	// Args are the arguments of the query.
	Args map[string][]byte
}

// GetArg returns the value of the argument if it is set, otherwise nil.
func (r Request) GetArg(key string) []byte {
	return r.Args[key]
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the result
	// of it.
	Execute(snap store.Snapshot, step Step) (Result, error)

	// Query runs a read-only request against the store and returns the
	// encoded answer.
	Query(snap store.Readable, contract string, req Request) ([]byte, error)
}
