package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
)

// Exception is a Modbus exception code as defined by the specification.
type Exception uint8

const (
	ExcIllegalFunction                    Exception = 0x01
	ExcIllegalDataAddress                 Exception = 0x02
	ExcIllegalDataValue                   Exception = 0x03
	ExcSlaveDeviceFailure                 Exception = 0x04
	ExcAcknowledge                        Exception = 0x05
	ExcSlaveDeviceBusy                    Exception = 0x06
	ExcMemoryParityError                  Exception = 0x08
	ExcGatewayPathUnavailable             Exception = 0x0A
	ExcGatewayTargetDeviceFailedToRespond Exception = 0x0B
)

// String renders a human-readable exception name, falling back to
// Unknown(code) for exception codes the specification does not define.
func (e Exception) String() string {
	switch e {
	case ExcIllegalFunction:
		return "illegal function"
	case ExcIllegalDataAddress:
		return "illegal data address"
	case ExcIllegalDataValue:
		return "illegal data value"
	case ExcSlaveDeviceFailure:
		return "slave device failure"
	case ExcAcknowledge:
		return "acknowledge"
	case ExcSlaveDeviceBusy:
		return "slave device busy"
	case ExcMemoryParityError:
		return "memory parity error"
	case ExcGatewayPathUnavailable:
		return "gateway path unavailable"
	case ExcGatewayTargetDeviceFailedToRespond:
		return "gateway target device failed to respond"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(e))
	}
}

// ExceptionResponse is the unified decode of an error frame: a function
// code with the high bit set, followed by a single exception code byte.
// It is framing independent — the same type decodes an exception arriving
// over RTU, ASCII or TCP once the transport framer has stripped the
// surrounding ADU.
type ExceptionResponse struct {
	// Function is the original (non-error) function code the exception
	// responds to.
	Function uint8
	Code     Exception
}

// FunctionCode returns the original function code the exception is for,
// without the error bit set.
func (e *ExceptionResponse) FunctionCode() uint8 {
	return e.Function
}

// ToBuffer encodes the exception as its 2-byte PDU: (0x80|function) + code.
func (e *ExceptionResponse) ToBuffer() []byte {
	return []byte{e.Function | exceptionBit, uint8(e.Code)}
}

func (e *ExceptionResponse) String() string {
	return fmt.Sprintf("Exception{Function: 0x%02x, Code: %s}", e.Function, e.Code)
}

// Error implements the builtin error interface so an ExceptionResponse can
// be returned (and tested with errors.As) as the transaction's failure.
func (e *ExceptionResponse) Error() string {
	return fmt.Sprintf("modbus: exception response for function 0x%02x: %s", e.Function, e.Code)
}

// ExceptionResponseFromBuffer decodes a 2-byte exception PDU. The caller
// (ParseResponse) is responsible for first checking the high bit of pdu[0].
func ExceptionResponseFromBuffer(pdu []byte) (*ExceptionResponse, error) {
	if len(pdu) < 2 {
		return nil, &modbus.IncompleteResponseFrameError{Wanted: 2, Got: len(pdu)}
	}
	return &ExceptionResponse{
		Function: pdu[0] &^ exceptionBit,
		Code:     Exception(pdu[1]),
	}, nil
}
