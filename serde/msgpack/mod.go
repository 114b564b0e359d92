// Package msgpack implements the context engine for the msgpack format.
package msgpack

import (
	"github.com/vmihailenco/msgpack"
	"go.dedis.ch/tally/serde"
)

// msgpackEngine is a context engine to marshal and unmarshal in msgpack
// format.
//
// - implements serde.ContextEngine
type msgpackEngine struct{}

// NewContext returns a msgpack context.
func NewContext() serde.Context {
	return serde.NewContext(msgpackEngine{})
}

// GetFormat implements serde.ContextEngine. It returns the msgpack format name.
func (ctx msgpackEngine) GetFormat() serde.Format {
	return serde.FormatMsgpack
}

// Marshal implements serde.ContextEngine. It returns the bytes of the message
// marshaled in msgpack format.
func (ctx msgpackEngine) Marshal(m interface{}) ([]byte, error) {
	return msgpack.Marshal(m)
}

// Unmarshal implements serde.ContextEngine. It populates the message using the
// msgpack format definition.
func (ctx msgpackEngine) Unmarshal(data []byte, m interface{}) error {
	return msgpack.Unmarshal(data, m)
}
