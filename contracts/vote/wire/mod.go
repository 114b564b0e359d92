// Package wire implements the format engine of the vote messages.
//
// The engine translates the messages into plain data structures and delegates
// the encoding to the context, so that the same engine is registered for the
// JSON and the msgpack formats. Counters are written as decimal strings and
// deadlines follow the {"at_height": n} or {"at_time": "<RFC3339>"} shape.
package wire

import (
	"time"

	"go.dedis.ch/tally/contracts/vote/types"
	"go.dedis.ch/tally/core/access"
	"go.dedis.ch/tally/serde"
	"golang.org/x/xerrors"
	"lukechampine.com/uint128"
)

func init() {
	types.RegisterMessageFormat(serde.FormatJSON, newMsgFormat())
	types.RegisterMessageFormat(serde.FormatMsgpack, newMsgFormat())
}

// Schedule is the wire representation of a deadline.
type Schedule struct {
	AtHeight *uint64 `json:"at_height,omitempty" msgpack:"at_height,omitempty"`
	AtTime   *string `json:"at_time,omitempty" msgpack:"at_time,omitempty"`
}

// VoteBox is the wire representation of a vote box.
type VoteBox struct {
	ID       uint64   `json:"id" msgpack:"id"`
	YesCount string   `json:"yes_count" msgpack:"yes_count"`
	NoCount  string   `json:"no_count" msgpack:"no_count"`
	Deadline Schedule `json:"deadline" msgpack:"deadline"`
	Owner    string   `json:"owner" msgpack:"owner"`
}

// QueryResponse is the wire representation of the answer to a vote query.
type QueryResponse struct {
	ID       uint64   `json:"id,omitempty" msgpack:"id,omitempty"`
	YesCount string   `json:"yes_count" msgpack:"yes_count"`
	NoCount  string   `json:"no_count" msgpack:"no_count"`
	Deadline Schedule `json:"deadline" msgpack:"deadline"`
	Owner    string   `json:"owner,omitempty" msgpack:"owner,omitempty"`
}

// Message is the container of the vote messages. Only one of the fields is
// set.
type Message struct {
	VoteBox       *VoteBox       `json:",omitempty" msgpack:",omitempty"`
	QueryResponse *QueryResponse `json:",omitempty" msgpack:",omitempty"`
}

// msgFormat is the engine to encode and decode vote messages.
//
// - implements serde.FormatEngine
type msgFormat struct{}

func newMsgFormat() msgFormat {
	return msgFormat{}
}

// Encode implements serde.FormatEngine. It returns the serialized data for the
// message in the format of the context.
func (f msgFormat) Encode(ctx serde.Context, message serde.Message) ([]byte, error) {
	var m Message

	switch in := message.(type) {
	case types.VoteBox:
		m = Message{VoteBox: &VoteBox{
			ID:       in.ID,
			YesCount: in.Tally.Yes.String(),
			NoCount:  in.Tally.No.String(),
			Deadline: encodeSchedule(in.Deadline),
			Owner:    in.Owner.String(),
		}}
	case types.QueryResponse:
		m = Message{QueryResponse: &QueryResponse{
			ID:       in.ID,
			YesCount: in.YesCount.String(),
			NoCount:  in.NoCount.String(),
			Deadline: encodeSchedule(in.Deadline),
			Owner:    in.Owner.String(),
		}}
	default:
		return nil, xerrors.Errorf("unsupported message of type '%T'", message)
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the message from the data
// if appropriate, otherwise it returns an error.
func (f msgFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := Message{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal message: %v", err)
	}

	switch {
	case m.VoteBox != nil:
		return decodeBox(*m.VoteBox)
	case m.QueryResponse != nil:
		return decodeResponse(*m.QueryResponse)
	}

	return nil, xerrors.New("message is empty")
}

func decodeBox(m VoteBox) (types.VoteBox, error) {
	yes, no, err := decodeCounters(m.YesCount, m.NoCount)
	if err != nil {
		return types.VoteBox{}, err
	}

	deadline, err := decodeSchedule(m.Deadline)
	if err != nil {
		return types.VoteBox{}, err
	}

	box := types.VoteBox{
		ID:       m.ID,
		Tally:    types.Tally{Yes: yes, No: no},
		Deadline: deadline,
		Owner:    access.Address(m.Owner),
	}

	return box, nil
}

func decodeResponse(m QueryResponse) (types.QueryResponse, error) {
	yes, no, err := decodeCounters(m.YesCount, m.NoCount)
	if err != nil {
		return types.QueryResponse{}, err
	}

	deadline, err := decodeSchedule(m.Deadline)
	if err != nil {
		return types.QueryResponse{}, err
	}

	resp := types.QueryResponse{
		ID:       m.ID,
		YesCount: yes,
		NoCount:  no,
		Deadline: deadline,
		Owner:    access.Address(m.Owner),
	}

	return resp, nil
}

func decodeCounters(yes, no string) (uint128.Uint128, uint128.Uint128, error) {
	y, err := uint128.FromString(yes)
	if err != nil {
		return y, y, xerrors.Errorf("invalid yes count: %v", err)
	}

	n, err := uint128.FromString(no)
	if err != nil {
		return y, n, xerrors.Errorf("invalid no count: %v", err)
	}

	return y, n, nil
}

func encodeSchedule(s types.Schedule) Schedule {
	var m Schedule

	switch s.GetKind() {
	case types.AtHeightKind:
		height := s.GetHeight()
		m.AtHeight = &height
	case types.AtTimeKind:
		text := s.GetTime().Format(time.RFC3339Nano)
		m.AtTime = &text
	}

	return m
}

func decodeSchedule(m Schedule) (types.Schedule, error) {
	switch {
	case m.AtHeight != nil && m.AtTime != nil:
		return types.Schedule{}, xerrors.New("deadline has both a height and a time")
	case m.AtHeight != nil:
		return types.AtHeight(*m.AtHeight), nil
	case m.AtTime != nil:
		t, err := time.Parse(time.RFC3339Nano, *m.AtTime)
		if err != nil {
			return types.Schedule{}, xerrors.Errorf("invalid deadline time: %v", err)
		}

		return types.AtTime(t), nil
	default:
		return types.Schedule{}, xerrors.New("deadline is missing")
	}
}
