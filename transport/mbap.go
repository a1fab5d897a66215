package transport

import (
	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

// mbapHeaderLength is transaction id (2) + protocol id (2) + length (2) +
// unit id (1).
const mbapHeaderLength = 7

// MBAPFramer reassembles Modbus TCP ADUs. Unlike RTU and ASCII, framing
// is purely length-driven: the 7-byte header declares exactly how many
// bytes follow, so no idle timer or terminator is involved, and several
// complete frames may be pulled out of a single Feed call.
type MBAPFramer struct {
	buf []byte
}

// NewMBAPFramer constructs an MBAP framer.
func NewMBAPFramer() *MBAPFramer {
	return &MBAPFramer{}
}

// Feed appends bytes and emits every frame that has become complete.
func (f *MBAPFramer) Feed(b []byte) []Event {
	f.buf = append(f.buf, b...)

	var events []Event
	for {
		if len(f.buf) < mbapHeaderLength {
			return events
		}
		protoID := wire.Uint16(f.buf[2:4])
		length := wire.Uint16(f.buf[4:6])
		if protoID != 0 {
			events = append(events, Event{Err: &modbus.InvalidResponseDataError{Reason: "mbap: protocol id must be 0"}})
			f.buf = nil
			return events
		}
		// length counts unit id (1 byte) plus the PDU that follows it.
		total := 6 + int(length)
		if len(f.buf) < total {
			return events
		}
		txID := wire.Uint16(f.buf[0:2])
		unitID := f.buf[6]
		pdu := append([]byte(nil), f.buf[7:total]...)
		events = append(events, Event{Frame: &Frame{UnitID: unitID, TxID: txID, PDU: pdu}})
		f.buf = f.buf[total:]
	}
}

// Wrap builds an MBAP ADU: 2-byte txID, 2-byte protocol id (always 0),
// 2-byte length (unit id + PDU), unit id, then the PDU.
func (f *MBAPFramer) Wrap(pdu []byte, unitID uint8, txID uint16) []byte {
	length := uint16(len(pdu) + 1)
	buf := make([]byte, mbapHeaderLength+len(pdu))
	wire.PutUint16(buf[0:2], txID)
	wire.PutUint16(buf[2:4], 0)
	wire.PutUint16(buf[4:6], length)
	buf[6] = unitID
	copy(buf[7:], pdu)
	return buf
}

// Reset discards any partially-received header or body.
func (f *MBAPFramer) Reset() {
	f.buf = nil
}
