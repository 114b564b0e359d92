// Package access defines the identities of the callers and the validation of
// their addresses.
//
// The host authenticates the callers, so that an identity that reaches a
// contract can be trusted. Contracts only compare identities and validate the
// addresses that they receive as arguments.
package access

import "encoding"

// Identity is an abstraction to uniquely identify a caller.
type Identity interface {
	encoding.TextMarshaler

	// Equal returns true when the other identity is the same.
	Equal(other Identity) bool

	String() string
}
