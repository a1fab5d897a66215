// Package conn implements the abstract byte-transport connections the
// master opens requests over: a reference TCP connection and a serial
// connection wrapping github.com/tarm/serial. Concrete drivers beyond
// these two are left to callers — the package only fixes the event
// contract a transaction engine can rely on.
package conn

import "sync"

// Listener receives the events a Connection emits.
type Listener interface {
	// OnOpen fires once the underlying resource is ready for writes.
	OnOpen()
	// OnClose fires once after Destroy closes the underlying resource,
	// whether Destroy was called directly or the resource failed.
	OnClose()
	// OnData fires for every chunk of bytes read off the wire. No
	// framing is implied; transport.Framer reassembles these.
	OnData(b []byte)
	// OnError fires for a read or write failure. A read failure is
	// followed by Destroy, so OnClose comes next; a write failure leaves
	// the connection open. SerialConnection.Write reports a write error
	// only here, while TCPConnection.Write also returns it.
	OnError(err error)
}

// Connection is the abstract byte transport. destroy() must be
// idempotent: repeated calls do not error, detach every listener, and
// close the underlying resource exactly once.
type Connection interface {
	Open() error
	Write(b []byte) error
	IsOpen() bool
	Destroy() error
	Subscribe(l Listener) (unsubscribe func())
}

// base centralizes the listener bookkeeping and idempotent-destroy
// mechanics shared by every Connection implementation.
type base struct {
	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	destroyed bool
}

func newBase() base {
	return base{listeners: make(map[int]Listener)}
}

// Subscribe registers l for events and returns a function that detaches
// it; safe to call multiple times.
func (b *base) Subscribe(l Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *base) snapshot() []Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		out = append(out, l)
	}
	return out
}

func (b *base) emitOpen() {
	for _, l := range b.snapshot() {
		l.OnOpen()
	}
}

func (b *base) emitClose() {
	for _, l := range b.snapshot() {
		l.OnClose()
	}
}

func (b *base) emitData(data []byte) {
	for _, l := range b.snapshot() {
		l.OnData(data)
	}
}

func (b *base) emitError(err error) {
	for _, l := range b.snapshot() {
		l.OnError(err)
	}
}

// markDestroyed returns true the first time it is called, and false on
// every call after — the caller uses this to make its close sequence
// run exactly once while never failing on repeat Destroy calls.
func (b *base) markDestroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return false
	}
	b.destroyed = true
	return true
}

func (b *base) detachAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[int]Listener)
}
