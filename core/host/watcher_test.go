package host

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatcher_Add(t *testing.T) {
	w := newWatcher()

	w.add(newFakeObserver())
	require.Len(t, w.observers, 1)

	obs := newFakeObserver()
	w.add(obs)
	require.Len(t, w.observers, 2)

	w.add(obs)
	require.Len(t, w.observers, 2)
}

func TestWatcher_Remove(t *testing.T) {
	w := newWatcher()

	obs := newFakeObserver()
	w.add(newFakeObserver())
	w.add(obs)

	w.remove(obs)
	require.Len(t, w.observers, 1)

	w.remove(obs)
	require.Len(t, w.observers, 1)
}

func TestWatcher_Notify(t *testing.T) {
	w := newWatcher()

	obs := newFakeObserver()
	w.add(obs)

	w.notify(Event{TxID: []byte{1}})

	evt := <-obs.ch
	require.Equal(t, []byte{1}, evt.TxID)
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeObserver struct {
	ch chan Event
}

func (o fakeObserver) NotifyCallback(evt Event) {
	o.ch <- evt
}

func newFakeObserver() fakeObserver {
	return fakeObserver{
		ch: make(chan Event, 10),
	}
}
