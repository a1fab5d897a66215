package conn

import (
	"net"
	"sync"
	"time"
)

// defaultTCPReadBuf is sized for the largest possible MBAP ADU (260
// bytes) with headroom.
const defaultTCPReadBuf = 512

// defaultDialTimeout bounds how long Open waits to establish the TCP
// connection.
const defaultDialTimeout = 3 * time.Second

// TCPConnection wraps a net.Conn as a Connection, for Modbus TCP masters.
type TCPConnection struct {
	base

	address     string
	dialTimeout time.Duration
	readBufSize int

	mu   sync.Mutex
	conn net.Conn
}

// TCPOption configures a TCPConnection at construction.
type TCPOption func(*TCPConnection)

// WithDialTimeout overrides the default dial timeout.
func WithDialTimeout(d time.Duration) TCPOption {
	return func(c *TCPConnection) { c.dialTimeout = d }
}

// WithTCPReadBufferSize overrides the read-loop buffer size.
func WithTCPReadBufferSize(n int) TCPOption {
	return func(c *TCPConnection) { c.readBufSize = n }
}

// NewTCPConnection constructs a TCPConnection for the given "host:port"
// address.
func NewTCPConnection(address string, opts ...TCPOption) *TCPConnection {
	c := &TCPConnection{
		base:        newBase(),
		address:     address,
		dialTimeout: defaultDialTimeout,
		readBufSize: defaultTCPReadBuf,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open dials the configured address and starts the background read loop.
func (c *TCPConnection) Open() error {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.Dial("tcp", c.address)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	c.emitOpen()
	return nil
}

func (c *TCPConnection) readLoop() {
	buf := make([]byte, c.readBufSize)
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		n, err := conn.Read(buf)
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

// Write writes b to the connection, returning any synchronous error.
func (c *TCPConnection) Write(b []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}
	_, err := conn.Write(b)
	if err != nil {
		c.emitError(err)
	}
	return err
}

// IsOpen reports whether the underlying net.Conn is set.
func (c *TCPConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Destroy closes the connection exactly once, detaches all listeners,
// and is safe to call any number of times.
func (c *TCPConnection) Destroy() error {
	if !c.markDestroyed() {
		return nil
	}
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	c.emitClose()
	c.detachAll()
	return err
}
