package conn

import (
	"errors"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// ErrNotOpen is returned by Write when no underlying resource is open.
var ErrNotOpen = errors.New("conn: connection is not open")

// defaultSerialReadBuf is sized for the largest possible RTU ADU (256
// bytes) with headroom.
const defaultSerialReadBuf = 512

// SerialConnection wraps a github.com/tarm/serial port as a Connection,
// for RTU and ASCII masters.
type SerialConnection struct {
	base

	config      *serial.Config
	readBufSize int

	mu   sync.Mutex
	port *serial.Port
}

// SerialOption configures a SerialConnection at construction.
type SerialOption func(*SerialConnection)

// WithSerialReadBufferSize overrides the read-loop buffer size.
func WithSerialReadBufferSize(n int) SerialOption {
	return func(c *SerialConnection) { c.readBufSize = n }
}

// NewSerialConnection constructs a SerialConnection for the named port
// (e.g. "/dev/ttyUSB0", "COM3") at the given baud rate.
func NewSerialConnection(name string, baud int, opts ...SerialOption) *SerialConnection {
	c := &SerialConnection{
		base:        newBase(),
		config:      &serial.Config{Name: name, Baud: baud, ReadTimeout: 50 * time.Millisecond},
		readBufSize: defaultSerialReadBuf,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open opens the serial port and starts the background read loop. The
// connection is considered open once the port handle is non-nil.
func (c *SerialConnection) Open() error {
	port, err := serial.OpenPort(c.config)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.port = port
	c.mu.Unlock()

	go c.readLoop()
	c.emitOpen()
	return nil
}

func (c *SerialConnection) readLoop() {
	buf := make([]byte, c.readBufSize)
	for {
		c.mu.Lock()
		port := c.port
		c.mu.Unlock()
		if port == nil {
			return
		}

		n, err := port.Read(buf)
		if n > 0 {
			c.emitData(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			c.emitError(err)
			_ = c.Destroy()
			return
		}
	}
}

// Write writes b to the port. A synchronous write failure is reported
// as an OnError event to subscribers rather than returned, matching the
// behavior callers of a live serial port expect: the failure is
// asynchronous from the caller's point of view once the port is open.
func (c *SerialConnection) Write(b []byte) error {
	c.mu.Lock()
	port := c.port
	c.mu.Unlock()
	if port == nil {
		return ErrNotOpen
	}
	if _, err := port.Write(b); err != nil {
		c.emitError(err)
	}
	return nil
}

// IsOpen reports whether the port handle is set.
func (c *SerialConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port != nil
}

// Destroy closes the port exactly once, detaches all listeners, and is
// safe to call any number of times.
func (c *SerialConnection) Destroy() error {
	if !c.markDestroyed() {
		return nil
	}
	c.mu.Lock()
	port := c.port
	c.port = nil
	c.mu.Unlock()

	var err error
	if port != nil {
		err = port.Close()
	}
	c.emitClose()
	c.detachAll()
	return err
}
