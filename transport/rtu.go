package transport

import (
	"time"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

// DefaultRTUIdleGap is the silence interval used to delimit an RTU frame
// when the baud rate (and so the 3.5-character-time gap it implies) is
// not known.
const DefaultRTUIdleGap = 10 * time.Millisecond

// minRTUFrameLength is address (1) + at least one PDU byte + CRC (2).
const minRTUFrameLength = 4

// RTUFramer reassembles Modbus RTU ADUs. RTU carries no length field, so
// frame boundaries are normally silence-driven: the framer holds no timer,
// and its caller (master.Master's run loop) calls Idle whenever its own
// idle-gap timer fires. ExpectBytes lets the
// caller short-circuit that timer once it knows how many ADU bytes a
// response should be, which avoids waiting out the full gap on a fast,
// well-behaved link.
type RTUFramer struct {
	idleGap     time.Duration
	buf         []byte
	expectBytes int
}

// NewRTUFramer constructs an RTU framer with the given idle gap. A zero
// idleGap uses DefaultRTUIdleGap.
func NewRTUFramer(idleGap time.Duration) *RTUFramer {
	if idleGap <= 0 {
		idleGap = DefaultRTUIdleGap
	}
	return &RTUFramer{idleGap: idleGap}
}

// IdleGap returns the configured silence interval.
func (f *RTUFramer) IdleGap() time.Duration { return f.idleGap }

// ExpectBytes tells the framer the total ADU length (unit id + PDU + CRC)
// of the next expected frame, letting Feed emit as soon as that many
// bytes have arrived instead of waiting for Idle. Zero clears the hint.
func (f *RTUFramer) ExpectBytes(n int) { f.expectBytes = n }

// Feed appends bytes to the reassembly buffer. If ExpectBytes has been
// set and enough bytes have now arrived, the frame is emitted
// immediately; otherwise Feed waits for the caller to signal Idle.
func (f *RTUFramer) Feed(b []byte) []Event {
	f.buf = append(f.buf, b...)
	if f.expectBytes > 0 && len(f.buf) >= f.expectBytes {
		return f.emit()
	}
	return nil
}

// Idle signals that the idle-gap timer has fired: whatever bytes have
// accumulated since the last frame are treated as a candidate frame. A
// no-op when the buffer is empty.
func (f *RTUFramer) Idle() []Event {
	if len(f.buf) == 0 {
		return nil
	}
	return f.emit()
}

func (f *RTUFramer) emit() []Event {
	data := f.buf
	f.buf = nil
	f.expectBytes = 0

	if len(data) < minRTUFrameLength {
		return []Event{{Err: &modbus.IncompleteResponseFrameError{Wanted: minRTUFrameLength, Got: len(data)}}}
	}

	adu, crcBytes := data[:len(data)-2], data[len(data)-2:]
	want := wire.CRC16(adu)
	got := uint16(crcBytes[0]) | uint16(crcBytes[1])<<8
	if want != got {
		return []Event{{Err: &modbus.InvalidChecksumError{Kind: "rtu-crc16"}}}
	}
	return []Event{{Frame: &Frame{UnitID: adu[0], PDU: adu[1:]}}}
}

// Wrap builds an RTU ADU: unit id, PDU, then CRC-16 low byte first, high
// byte second.
func (f *RTUFramer) Wrap(pdu []byte, unitID uint8, _ uint16) []byte {
	buf := make([]byte, 1+len(pdu)+2)
	buf[0] = unitID
	copy(buf[1:], pdu)
	crc := wire.CRC16(buf[:1+len(pdu)])
	buf[1+len(pdu)] = byte(crc)
	buf[1+len(pdu)+1] = byte(crc >> 8)
	return buf
}

// Reset discards any partial frame in the reassembly buffer.
func (f *RTUFramer) Reset() {
	f.buf = nil
	f.expectBytes = 0
}
