// Package registry maps the formats of the serde contexts to the engines that
// encode the messages of a package.
//
// A package owning messages keeps its own registry, and the engines register
// themselves in their init function. Looking up a format without an engine
// returns an engine that fails with an explicit error.
package registry

import (
	"sync"

	"go.dedis.ch/tally/serde"
	"golang.org/x/xerrors"
)

// Registry is a set of format engines indexed by their format. It is safe for
// concurrent use.
type Registry struct {
	sync.RWMutex
	engines map[serde.Format]serde.FormatEngine
}

// NewRegistry returns a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[serde.Format]serde.FormatEngine),
	}
}

// Register sets the engine of the format. It replaces the previous one, if
// any.
func (r *Registry) Register(format serde.Format, engine serde.FormatEngine) {
	r.Lock()
	r.engines[format] = engine
	r.Unlock()
}

// Get returns the engine of the format. It never returns nil.
func (r *Registry) Get(format serde.Format) serde.FormatEngine {
	r.RLock()
	engine := r.engines[format]
	r.RUnlock()

	if engine == nil {
		return missingEngine{format: format}
	}

	return engine
}

// missingEngine is returned for a format without an engine.
//
// - implements serde.FormatEngine
type missingEngine struct {
	format serde.Format
}

// Encode implements serde.FormatEngine. It always returns an error.
func (e missingEngine) Encode(serde.Context, serde.Message) ([]byte, error) {
	return nil, xerrors.Errorf("no engine for format '%s'", e.format)
}

// Decode implements serde.FormatEngine. It always returns an error.
func (e missingEngine) Decode(serde.Context, []byte) (serde.Message, error) {
	return nil, xerrors.Errorf("no engine for format '%s'", e.format)
}
