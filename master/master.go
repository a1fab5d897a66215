// Package master implements the transaction and retry engine: it drives
// a Connection and a Framer to turn Execute calls into wire traffic,
// matches responses back to their requests (FIFO for serial transports,
// transaction id for TCP), retries transient failures, and fails
// outstanding work when the connection drops.
package master

import (
	"context"
	"log/slog"
	"sync"
	"time"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/conn"
	"github.com/ironloop-io/modbus/packet"
	"github.com/ironloop-io/modbus/transport"
)

// Mode selects how the engine matches responses to requests.
type Mode int

const (
	// ModeSerial keeps at most one transaction in flight and matches the
	// next decoded frame to it unconditionally (strict FIFO).
	ModeSerial Mode = iota
	// ModeTCP allows several transactions in flight and matches decoded
	// frames by the MBAP transaction id Wrap assigned them.
	ModeTCP
)

// Listener receives Master-level lifecycle events.
type Listener interface {
	OnOpen()
	OnClose()
	OnError(err error)
}

type timeoutSignal struct {
	tx  *transaction
	seq uint64
}

// Master ties a Connection, a Framer and the transaction queue together
// behind a single-goroutine event loop: all queue, in-flight and framer
// state is only ever touched from run, so none of it needs locking.
type Master struct {
	conn   conn.Connection
	framer transport.Framer
	mode   Mode

	unsubscribe func()

	submitCh  chan *transaction
	dataCh    chan []byte
	openCh    chan struct{}
	closeCh   chan error
	timeoutCh chan timeoutSignal
	retryCh   chan *transaction
	doneCh    chan struct{}
	closeOnce sync.Once

	// stopped is closed when run's loop returns, for any reason (Destroy,
	// the connection closing on its own, or the connection reporting an
	// error). Timers scheduled from the
	// loop select on it so they never block forever past the loop's exit.
	stopped chan struct{}

	idleGap time.Duration

	logger *slog.Logger

	listenersMu    sync.Mutex
	listeners      map[int]Listener
	nextListenerID int
}

// MasterOption customizes a Master away from its defaults at construction.
type MasterOption func(*Master)

// WithLogger sets the logger the engine reports retries, timeouts and
// connection-close drains to. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) MasterOption {
	return func(m *Master) { m.logger = logger }
}

// New constructs a Master over an already-configured Connection and
// Framer. Call Open to connect and start the engine.
func New(c conn.Connection, f transport.Framer, mode Mode, opts ...MasterOption) *Master {
	m := &Master{
		conn:      c,
		framer:    f,
		mode:      mode,
		submitCh:  make(chan *transaction),
		dataCh:    make(chan []byte, 16),
		openCh:    make(chan struct{}, 1),
		closeCh:   make(chan error, 1),
		timeoutCh: make(chan timeoutSignal, 16),
		retryCh:   make(chan *transaction, 16),
		doneCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
		logger:    slog.Default(),
		listeners: make(map[int]Listener),
	}
	if rtu, ok := f.(*transport.RTUFramer); ok {
		m.idleGap = rtu.IdleGap()
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Subscribe registers l for open/close/error events and returns a
// function that detaches it.
func (m *Master) Subscribe(l Listener) func() {
	m.listenersMu.Lock()
	id := m.nextListenerID
	m.nextListenerID++
	m.listeners[id] = l
	m.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenersMu.Lock()
			delete(m.listeners, id)
			m.listenersMu.Unlock()
		})
	}
}

func (m *Master) snapshotListeners() []Listener {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	out := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}

func (m *Master) emitOpen() {
	for _, l := range m.snapshotListeners() {
		l.OnOpen()
	}
}

func (m *Master) emitClose() {
	for _, l := range m.snapshotListeners() {
		l.OnClose()
	}
}

func (m *Master) emitError(err error) {
	for _, l := range m.snapshotListeners() {
		l.OnError(err)
	}
}

// connBridge adapts conn.Listener callbacks, which may fire on the
// connection's own read-loop goroutine, onto Master's channels so that
// framer and queue state is only ever touched from run.
type connBridge struct{ m *Master }

func (b connBridge) OnOpen() {
	select {
	case b.m.openCh <- struct{}{}:
	default:
	}
}

func (b connBridge) OnClose() {
	select {
	case b.m.closeCh <- nil:
	default:
	}
}

func (b connBridge) OnError(err error) {
	select {
	case b.m.closeCh <- err:
	default:
	}
}

func (b connBridge) OnData(data []byte) {
	b.m.dataCh <- data
}

// Open connects the underlying connection and starts the engine's run
// loop. The run loop exits once Destroy is called, the connection closes
// on its own, or the connection reports any error through OnError (a
// failed serial write included). On that exit every queued and in-flight
// transaction fails with ConnectionClosedError; an exit caused by
// OnError does not destroy the connection.
func (m *Master) Open() error {
	m.unsubscribe = m.conn.Subscribe(connBridge{m})
	if err := m.conn.Open(); err != nil {
		m.unsubscribe()
		return err
	}
	go m.run()
	return nil
}

// Execute submits req and blocks until it completes, fails after
// exhausting its retries, or ctx is done. Cancelling ctx does not cancel
// wire traffic already in flight; it only stops this call from waiting
// on it.
func (m *Master) Execute(ctx context.Context, req packet.Request, opts ...ExecuteOption) (packet.Response, error) {
	cfg := defaultExecuteConfig()
	for _, o := range opts {
		o(&cfg)
	}

	tx := newTransaction(ctx, req, cfg)
	select {
	case m.submitCh <- tx:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.stopped:
		return nil, &modbus.ConnectionClosedError{}
	}

	select {
	case res := <-tx.resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Destroy stops the run loop and destroys the underlying connection.
// Idempotent.
func (m *Master) Destroy() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.doneCh)
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		err = m.conn.Destroy()
	})
	return err
}
