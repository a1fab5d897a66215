package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

// encodeReadRequest builds the 5-byte PDU shared by ReadCoils,
// ReadDiscreteInputs, ReadHoldingRegisters and ReadInputRegisters
// requests: function code + start address + quantity.
func encodeReadRequest(fc uint8, address, quantity uint16) []byte {
	buf := make([]byte, 5)
	buf[0] = fc
	wire.PutUint16(buf[1:3], address)
	wire.PutUint16(buf[3:5], quantity)
	return buf
}

// decodeReadRequest parses that same 5-byte PDU shape, checking the
// function code byte matches and the buffer is long enough.
func decodeReadRequest(fc uint8, pdu []byte) (address, quantity uint16, err error) {
	if err := checkMinLength(requestMinLength, fc, len(pdu)); err != nil {
		return 0, 0, err
	}
	if pdu[0] != fc {
		return 0, 0, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x, wanted 0x%02x", pdu[0], fc)}
	}
	return wire.Uint16(pdu[1:3]), wire.Uint16(pdu[3:5]), nil
}
