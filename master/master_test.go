package master

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/conn"
	"github.com/ironloop-io/modbus/packet"
	"github.com/ironloop-io/modbus/transport"
	"github.com/ironloop-io/modbus/wire"
)

// fakeConn is a conn.Connection test double: Write is wired to a
// caller-supplied hook so tests can script wire behavior (drop the
// bytes, echo a canned response, fail), and listeners are driven
// directly rather than through any real I/O.
type fakeConn struct {
	mu        sync.Mutex
	listeners map[int]conn.Listener
	nextID    int
	open      bool
	writes    [][]byte

	onWrite func(f *fakeConn, b []byte)
}

func newFakeConn(onWrite func(f *fakeConn, b []byte)) *fakeConn {
	return &fakeConn{listeners: make(map[int]conn.Listener), onWrite: onWrite}
}

func (f *fakeConn) Open() error {
	f.mu.Lock()
	f.open = true
	f.mu.Unlock()
	f.forEach(func(l conn.Listener) { l.OnOpen() })
	return nil
}

func (f *fakeConn) Write(b []byte) error {
	f.mu.Lock()
	cp := append([]byte(nil), b...)
	f.writes = append(f.writes, cp)
	f.mu.Unlock()
	if f.onWrite != nil {
		f.onWrite(f, cp)
	}
	return nil
}

func (f *fakeConn) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeConn) Destroy() error {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
	f.forEach(func(l conn.Listener) { l.OnClose() })
	return nil
}

func (f *fakeConn) Subscribe(l conn.Listener) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = l
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeConn) deliver(data []byte) {
	f.forEach(func(l conn.Listener) { l.OnData(data) })
}

func (f *fakeConn) forEach(fn func(conn.Listener)) {
	f.mu.Lock()
	ls := make([]conn.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		ls = append(ls, l)
	}
	f.mu.Unlock()
	for _, l := range ls {
		fn(l)
	}
}

func (f *fakeConn) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func newReadHoldingRequest(t *testing.T) packet.Request {
	t.Helper()
	req, err := packet.NewReadHoldingRegistersRequest(0, 2)
	require.NoError(t, err)
	return req
}

// TestMaster_TimeoutThenRetryThenFail exercises a request whose peer
// never answers: a 50ms timeout with 2 retries issues 3 writes 50ms
// apart (retries fire as soon as each attempt's timeout expires, with no
// added interval) and resolves with a timeout error once the budget is
// spent, in roughly 150ms total.
func TestMaster_TimeoutThenRetryThenFail(t *testing.T) {
	var mu sync.Mutex
	var writeTimes []time.Duration
	start := time.Now()

	fc := newFakeConn(func(f *fakeConn, b []byte) {
		mu.Lock()
		writeTimes = append(writeTimes, time.Since(start))
		mu.Unlock()
	})
	m := New(fc, transport.NewMBAPFramer(), ModeTCP)
	require.NoError(t, m.Open())
	defer m.Destroy()

	_, err := m.Execute(context.Background(), newReadHoldingRequest(t),
		WithTimeout(50*time.Millisecond), WithRetries(2))
	elapsed := time.Since(start)

	require.Error(t, err)
	var timeoutErr *modbus.ResponseTimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, writeTimes, 3, "initial attempt plus two retries")
	assert.InDelta(t, 50*time.Millisecond, writeTimes[1]-writeTimes[0], float64(25*time.Millisecond),
		"second write must follow the first by about one 50ms timeout, not a timeout plus a separate interval")
	assert.InDelta(t, 50*time.Millisecond, writeTimes[2]-writeTimes[1], float64(25*time.Millisecond),
		"third write must follow the second by about one 50ms timeout, not a timeout plus a separate interval")
	assert.Less(t, elapsed, 200*time.Millisecond, "three 50ms-spaced attempts must resolve well under 200ms, not ~250ms")
}

// TestMaster_SerialFIFO submits two requests back to back over a serial
// (ModeSerial) transport: the second may not be written to the wire
// until the first's response has arrived, since only one transaction is
// ever in flight.
func TestMaster_SerialFIFO(t *testing.T) {
	var mu sync.Mutex
	var writeOrder []string

	fc := newFakeConn(func(f *fakeConn, b []byte) {
		addr := b[3]
		mu.Lock()
		writeOrder = append(writeOrder, string(rune('0'+addr)))
		mu.Unlock()
		// Echo a minimal, well-formed holding-registers response for
		// whichever address was requested, asynchronously, to emulate
		// a real peer's latency.
		go func() {
			time.Sleep(5 * time.Millisecond)
			resp := []byte{0x03, 0x02, 0x00, addr}
			adu := append([]byte{0x11}, resp...)
			crc := wire.CRC16(adu)
			adu = append(adu, byte(crc), byte(crc>>8))
			f.deliver(adu)
		}()
	})

	m := New(fc, transport.NewRTUFramer(2*time.Millisecond), ModeSerial)
	require.NoError(t, m.Open())
	defer m.Destroy()

	req1, _ := packet.NewReadHoldingRegistersRequest(1, 1)
	req2, _ := packet.NewReadHoldingRegistersRequest(2, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	var resp1, resp2 packet.Response
	go func() {
		defer wg.Done()
		resp1, _ = m.Execute(context.Background(), req1, WithUnit(0x11))
	}()
	go func() {
		defer wg.Done()
		time.Sleep(1 * time.Millisecond)
		resp2, _ = m.Execute(context.Background(), req2, WithUnit(0x11))
	}()
	wg.Wait()

	require.NotNil(t, resp1)
	require.NotNil(t, resp2)
	assert.Equal(t, 2, fc.writeCount())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"1", "2"}, writeOrder,
		"the second request's bytes may not reach the wire before the first transaction completes")
}
