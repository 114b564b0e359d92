// Package serde defines the primitives to serialize and deserialize (serde)
// messages.
//
// A message computes its serialization by looking up the format engine
// registered for the format of the context. The engine translates the message
// into a data structure that the context marshals. Two contexts are available:
// JSON and msgpack.
package serde

// Format is the identifier of a format implementation.
type Format string

const (
	// FormatJSON is the identifier for the JSON format.
	FormatJSON Format = "JSON"

	// FormatMsgpack is the identifier for the msgpack format.
	FormatMsgpack Format = "MSGPACK"
)

// Message is the interface that a message must implement to be serialized.
type Message interface {
	// Serialize returns the serialized data of the message.
	Serialize(ctx Context) ([]byte, error)
}

// FormatEngine is the interface that a format implementation must implement.
type FormatEngine interface {
	// Encode returns the bytes of the message according to the format of the
	// context.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message populated with the data.
	Decode(ctx Context, data []byte) (Message, error)
}
