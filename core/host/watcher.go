package host

import (
	"sync"

	"github.com/rs/xid"
	"go.dedis.ch/tally/core/execution"
)

// Event is emitted after a transaction is committed.
type Event struct {
	// ID identifies the execution in the logs of the host.
	ID xid.ID

	// TxID is the identifier of the transaction.
	TxID []byte

	Block  execution.Block
	Result execution.Result
}

// Observer is the interface to implement to watch the executions.
type Observer interface {
	NotifyCallback(event Event)
}

// watcher keeps the observers of the host.
type watcher struct {
	sync.RWMutex

	observers map[Observer]struct{}
}

func newWatcher() *watcher {
	return &watcher{
		observers: make(map[Observer]struct{}),
	}
}

func (w *watcher) add(observer Observer) {
	w.Lock()
	w.observers[observer] = struct{}{}
	w.Unlock()
}

func (w *watcher) remove(observer Observer) {
	w.Lock()
	delete(w.observers, observer)
	w.Unlock()
}

// notify calls the observers one after each other.
func (w *watcher) notify(event Event) {
	w.RLock()
	defer w.RUnlock()

	for obs := range w.observers {
		obs.NotifyCallback(event)
	}
}
