package transport

import (
	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

// ASCIIFramer reassembles Modbus ASCII ADUs: a ':' start marker, hex-coded
// unit id + PDU + LRC, terminated by CR LF. Unlike RTU, frame boundaries
// are explicit (the terminator), so no idle timer is needed. Bytes
// received before a ':' is seen are discarded.
type ASCIIFramer struct {
	active bool
	buf    []byte
}

// NewASCIIFramer constructs an ASCII framer.
func NewASCIIFramer() *ASCIIFramer {
	return &ASCIIFramer{}
}

// Feed scans b for a frame: a ':' arms the framer, and a CR LF closes it.
// Bytes outside that window (including anything before the first ':')
// are dropped.
func (f *ASCIIFramer) Feed(b []byte) []Event {
	var events []Event
	for _, c := range b {
		if !f.active {
			if c == ':' {
				f.active = true
				f.buf = f.buf[:0]
			}
			continue
		}
		if c == '\n' && len(f.buf) > 0 && f.buf[len(f.buf)-1] == '\r' {
			hexPart := f.buf[:len(f.buf)-1]
			f.active = false
			f.buf = nil
			events = append(events, f.decode(hexPart))
			continue
		}
		f.buf = append(f.buf, c)
	}
	return events
}

func (f *ASCIIFramer) decode(hexPart []byte) Event {
	data, err := wire.DecodeHex(hexPart)
	if err != nil {
		return Event{Err: &modbus.InvalidResponseDataError{Reason: err.Error()}}
	}
	if len(data) < 2 {
		return Event{Err: &modbus.IncompleteResponseFrameError{Wanted: 2, Got: len(data)}}
	}
	payload, lrc := data[:len(data)-1], data[len(data)-1]
	if wire.LRC(payload) != lrc {
		return Event{Err: &modbus.InvalidChecksumError{Kind: "ascii-lrc"}}
	}
	return Event{Frame: &Frame{UnitID: payload[0], PDU: payload[1:]}}
}

// Wrap builds an ASCII ADU: ':' + hex(unit id + PDU + LRC) + CR LF.
func (f *ASCIIFramer) Wrap(pdu []byte, unitID uint8, _ uint16) []byte {
	payload := make([]byte, 1+len(pdu))
	payload[0] = unitID
	copy(payload[1:], pdu)
	full := append(payload, wire.LRC(payload))

	out := make([]byte, 0, 1+len(full)*2+2)
	out = append(out, ':')
	out = append(out, wire.EncodeHex(full)...)
	out = append(out, '\r', '\n')
	return out
}

// Reset discards any partial frame and returns to scanning for ':'.
func (f *ASCIIFramer) Reset() {
	f.active = false
	f.buf = nil
}
