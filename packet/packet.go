// Package packet implements the Modbus function-code codec: per-function
// request/response objects that validate, encode to PDU bytes and decode
// from PDU bytes, plus the unified exception-response decode. Everything
// here is framing independent — a PDU is function code byte plus payload,
// with no unit id, CRC, LRC or MBAP header attached. Transport framers
// (package transport) own that wrapping.
package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
)

// Function codes this package implements. The eight required by the
// protocol core, plus ReadServerID and ReadWriteMultipleRegisters carried
// over from the wider Modbus corpus as supplemented, non-excluded features.
const (
	FunctionReadCoils                  = uint8(0x01)
	FunctionReadDiscreteInputs         = uint8(0x02)
	FunctionReadHoldingRegisters       = uint8(0x03)
	FunctionReadInputRegisters         = uint8(0x04)
	FunctionWriteSingleCoil            = uint8(0x05)
	FunctionWriteSingleRegister        = uint8(0x06)
	FunctionWriteMultipleCoils         = uint8(0x0F)
	FunctionWriteMultipleRegisters     = uint8(0x10)
	FunctionReadServerID               = uint8(0x11)
	FunctionReadWriteMultipleRegisters = uint8(0x17)
)

// exceptionBit is set on the function code byte of an exception response.
const exceptionBit = uint8(0x80)

// MaxPDULength is the largest a PDU (function code + payload) is allowed
// to be, per the Modbus Application Protocol specification.
const MaxPDULength = 253

// Request is the common interface every function-code request implements.
type Request interface {
	// FunctionCode returns the constant identifying the request's kind.
	FunctionCode() uint8
	// ToBuffer encodes the request into PDU bytes (function code + payload).
	ToBuffer() []byte
	// ExpectedResponseLength returns the byte length of PDU a well-formed
	// response to this request would be, used by transports that can
	// short-circuit idle-gap framing once that many bytes have arrived.
	// -1 means the length is not known up front (e.g. ReadServerID's
	// vendor-defined payload); callers fall back to idle-gap framing.
	ExpectedResponseLength() int
	// String renders a human diagnostic; not bit-exact wire format.
	String() string
}

// Response is the common interface every function-code response implements.
type Response interface {
	FunctionCode() uint8
	ToBuffer() []byte
	String() string
}

// requestMinLength is the minimum valid PDU length (function code included)
// for request decode per function code; used to distinguish an
// IncompleteResponseFrameError from an InvalidResponseDataError.
var requestMinLength = map[uint8]int{
	FunctionReadCoils:                  5,
	FunctionReadDiscreteInputs:         5,
	FunctionReadHoldingRegisters:       5,
	FunctionReadInputRegisters:         5,
	FunctionWriteSingleCoil:            5,
	FunctionWriteSingleRegister:        5,
	FunctionWriteMultipleCoils:         6,
	FunctionWriteMultipleRegisters:     6,
	FunctionReadServerID:               1,
	FunctionReadWriteMultipleRegisters: 10,
}

// responseMinLength is the same, for response decode.
var responseMinLength = map[uint8]int{
	FunctionReadCoils:                  2,
	FunctionReadDiscreteInputs:         2,
	FunctionReadHoldingRegisters:       2,
	FunctionReadInputRegisters:         2,
	FunctionWriteSingleCoil:            5,
	FunctionWriteSingleRegister:        5,
	FunctionWriteMultipleCoils:         5,
	FunctionWriteMultipleRegisters:     5,
	FunctionReadServerID:               2,
	FunctionReadWriteMultipleRegisters: 2,
}

// ParseResponse is the dispatcher the transaction engine uses: given the
// function code it expects and the PDU bytes a framer produced, it routes
// to ExceptionResponse decode when the high bit of the PDU's own function
// code byte is set, and otherwise to the matching per-function decoder.
func ParseResponse(expectedFunctionCode uint8, pdu []byte) (Response, error) {
	if len(pdu) < 1 {
		return nil, &modbus.IncompleteResponseFrameError{Wanted: 1, Got: 0}
	}
	fc := pdu[0]
	if fc&exceptionBit != 0 {
		return ExceptionResponseFromBuffer(pdu)
	}
	if fc != expectedFunctionCode {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x, wanted 0x%02x", fc, expectedFunctionCode)}
	}
	switch fc {
	case FunctionReadCoils:
		return ReadCoilsResponseFromBuffer(pdu)
	case FunctionReadDiscreteInputs:
		return ReadDiscreteInputsResponseFromBuffer(pdu)
	case FunctionReadHoldingRegisters:
		return ReadHoldingRegistersResponseFromBuffer(pdu)
	case FunctionReadInputRegisters:
		return ReadInputRegistersResponseFromBuffer(pdu)
	case FunctionWriteSingleCoil:
		return WriteSingleCoilResponseFromBuffer(pdu)
	case FunctionWriteSingleRegister:
		return WriteSingleRegisterResponseFromBuffer(pdu)
	case FunctionWriteMultipleCoils:
		return WriteMultipleCoilsResponseFromBuffer(pdu)
	case FunctionWriteMultipleRegisters:
		return WriteMultipleRegistersResponseFromBuffer(pdu)
	case FunctionReadServerID:
		return ReadServerIDResponseFromBuffer(pdu)
	case FunctionReadWriteMultipleRegisters:
		return ReadWriteMultipleRegistersResponseFromBuffer(pdu)
	default:
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unsupported function code 0x%02x", fc)}
	}
}

func checkMinLength(table map[uint8]int, fc uint8, got int) error {
	want, ok := table[fc]
	if !ok {
		return &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unsupported function code 0x%02x", fc)}
	}
	if got < want {
		return &modbus.IncompleteResponseFrameError{Wanted: want, Got: got}
	}
	return nil
}
