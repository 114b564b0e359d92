package types

import (
	"go.dedis.ch/tally/core/access"
	"go.dedis.ch/tally/serde"
	"lukechampine.com/uint128"
)

// VoteBox is a votable unit with its own deadline and owner. The contract in
// single mode stores one box with the identifier zero.
//
// - implements serde.Message
type VoteBox struct {
	ID       uint64
	Tally    Tally
	Deadline Schedule
	Owner    access.Address
}

// NewVoteBox returns a box with a zeroed tally.
func NewVoteBox(id uint64, deadline Schedule, owner access.Address) VoteBox {
	return VoteBox{
		ID:       id,
		Tally:    Tally{}.Reset(),
		Deadline: deadline,
		Owner:    owner,
	}
}

// Serialize implements serde.Message. It returns the serialized data of the
// box.
func (b VoteBox) Serialize(ctx serde.Context) ([]byte, error) {
	return serialize(ctx, b)
}

// QueryResponse is the answer of the contract to a vote query. The identifier
// and the owner are only set for the boxes of a contract in multi mode.
//
// - implements serde.Message
type QueryResponse struct {
	ID       uint64
	YesCount uint128.Uint128
	NoCount  uint128.Uint128
	Deadline Schedule
	Owner    access.Address
}

// Serialize implements serde.Message. It returns the serialized data of the
// response.
func (r QueryResponse) Serialize(ctx serde.Context) ([]byte, error) {
	return serialize(ctx, r)
}
