// Package transport implements the three Modbus ADU framers: RTU, ASCII and
// TCP/MBAP. A framer reassembles incoming bytes into complete frames
// (Feed) and wraps an outgoing PDU into ADU bytes for its wire format
// (Wrap). Framers are otherwise unaware of connections, retries or
// transactions — that is the master package's concern.
package transport

// Frame is a fully reassembled, checksum-verified Modbus ADU, reduced to
// the fields the transaction engine needs: which unit it came from, the
// transaction id if the framing has one (0 for RTU and ASCII, which have
// no such concept), and the PDU bytes.
type Frame struct {
	UnitID uint8
	TxID   uint16
	PDU    []byte
}

// Event is one outcome of feeding bytes to a framer: either a complete
// frame or a frame-shaped error (checksum failure, short buffer, bad
// header). Exactly one of Frame/Err is set.
type Event struct {
	Frame *Frame
	Err   error
}

// Framer is the common interface the three wire formats implement.
type Framer interface {
	// Feed appends b to the reassembly buffer and returns zero or more
	// events produced as a result. Partial frames persist across calls.
	Feed(b []byte) []Event
	// Wrap encodes pdu into outgoing ADU bytes addressed to unitID. txID
	// is only meaningful for framers that carry one (MBAP); RTU and
	// ASCII framers ignore it.
	Wrap(pdu []byte, unitID uint8, txID uint16) []byte
	// Reset discards any buffered, not-yet-complete reassembly state.
	// master.Master calls it when its connection closes or reports an
	// error.
	Reset()
}
