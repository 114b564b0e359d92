// Package types implements the messages of the vote contract.
//
// The records of the contract and the answers to the queries are serialized
// with the format engines registered for the format of the serde context.
package types

import (
	"go.dedis.ch/tally/serde"
	"go.dedis.ch/tally/serde/registry"
	"golang.org/x/xerrors"
)

var msgFormats = registry.NewRegistry()

// RegisterMessageFormat registers the engine for the provided format.
func RegisterMessageFormat(f serde.Format, e serde.FormatEngine) {
	msgFormats.Register(f, e)
}

// BoxOf decodes the vote box from the data according to the format of the
// context.
func BoxOf(ctx serde.Context, data []byte) (VoteBox, error) {
	format := msgFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return VoteBox{}, xerrors.Errorf("failed to decode: %v", err)
	}

	box, ok := msg.(VoteBox)
	if !ok {
		return VoteBox{}, xerrors.Errorf("invalid vote box of type '%T'", msg)
	}

	return box, nil
}

// QueryResponseOf decodes the answer of a query from the data according to the
// format of the context.
func QueryResponseOf(ctx serde.Context, data []byte) (QueryResponse, error) {
	format := msgFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return QueryResponse{}, xerrors.Errorf("failed to decode: %v", err)
	}

	resp, ok := msg.(QueryResponse)
	if !ok {
		return QueryResponse{}, xerrors.Errorf("invalid response of type '%T'", msg)
	}

	return resp, nil
}

func serialize(ctx serde.Context, msg serde.Message) ([]byte, error) {
	format := msgFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, msg)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode: %v", err)
	}

	return data, nil
}
