package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

const (
	coilOn  = uint16(0xFF00)
	coilOff = uint16(0x0000)
)

// encodeCoilState emits the strict wire encoding for a coil state: 0xFF00
// for on, 0x0000 for off. Always emitted strictly even though decode is
// liberal (see decodeCoilState).
func encodeCoilState(state bool) uint16 {
	if state {
		return coilOn
	}
	return coilOff
}

// decodeCoilState decodes a coil state liberally: only exactly 0xFF00
// decodes as true, any other value (including garbage) decodes as false.
func decodeCoilState(v uint16) bool {
	return v == coilOn
}

func encodeAddrState(fc uint8, address uint16, state bool) []byte {
	buf := make([]byte, 5)
	buf[0] = fc
	wire.PutUint16(buf[1:3], address)
	wire.PutUint16(buf[3:5], encodeCoilState(state))
	return buf
}

func decodeAddrState(fc uint8, pdu []byte, table map[uint8]int) (address uint16, state bool, err error) {
	if err := checkMinLength(table, fc, len(pdu)); err != nil {
		return 0, false, err
	}
	if pdu[0] != fc {
		return 0, false, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x, wanted 0x%02x", pdu[0], fc)}
	}
	return wire.Uint16(pdu[1:3]), decodeCoilState(wire.Uint16(pdu[3:5])), nil
}

// WriteSingleCoilRequest is the request for Write Single Coil (FC=0x05).
type WriteSingleCoilRequest struct {
	Address uint16
	State   bool
}

// NewWriteSingleCoilRequest constructs a request. Defaults when called
// with zero values are address 0x0000 and state false, matching the
// specification's construction defaults.
func NewWriteSingleCoilRequest(address uint16, state bool) (*WriteSingleCoilRequest, error) {
	return &WriteSingleCoilRequest{Address: address, State: state}, nil
}

// WriteSingleCoilRequestFromOptions constructs from a named field map.
// Recognized keys: "address", "state".
func WriteSingleCoilRequestFromOptions(opts map[string]any) (*WriteSingleCoilRequest, error) {
	address, err := optUint16(opts, "address")
	if err != nil {
		return nil, err
	}
	state, err := optBool(opts, "state")
	if err != nil {
		return nil, err
	}
	return NewWriteSingleCoilRequest(address, state)
}

func (r *WriteSingleCoilRequest) FunctionCode() uint8 { return FunctionWriteSingleCoil }

func (r *WriteSingleCoilRequest) ToBuffer() []byte {
	return encodeAddrState(FunctionWriteSingleCoil, r.Address, r.State)
}

func (r *WriteSingleCoilRequest) ExpectedResponseLength() int { return 5 }

func (r *WriteSingleCoilRequest) String() string {
	return fmt.Sprintf("WriteSingleCoilRequest{Address: %d, State: %v}", r.Address, r.State)
}

// WriteSingleCoilRequestFromBuffer decodes a request PDU.
func WriteSingleCoilRequestFromBuffer(pdu []byte) (*WriteSingleCoilRequest, error) {
	address, state, err := decodeAddrState(FunctionWriteSingleCoil, pdu, requestMinLength)
	if err != nil {
		return nil, err
	}
	return &WriteSingleCoilRequest{Address: address, State: state}, nil
}

// WriteSingleCoilResponse is the response for Write Single Coil (FC=0x05);
// it echoes the request's address and state.
type WriteSingleCoilResponse struct {
	Address uint16
	State   bool
}

// NewWriteSingleCoilResponse constructs a response.
func NewWriteSingleCoilResponse(address uint16, state bool) (*WriteSingleCoilResponse, error) {
	return &WriteSingleCoilResponse{Address: address, State: state}, nil
}

func (r *WriteSingleCoilResponse) FunctionCode() uint8 { return FunctionWriteSingleCoil }

func (r *WriteSingleCoilResponse) ToBuffer() []byte {
	return encodeAddrState(FunctionWriteSingleCoil, r.Address, r.State)
}

func (r *WriteSingleCoilResponse) String() string {
	return fmt.Sprintf("WriteSingleCoilResponse{Address: %d, State: %v}", r.Address, r.State)
}

// WriteSingleCoilResponseFromBuffer decodes a response PDU. Per the
// specification, any state value other than 0xFF00 decodes as false
// (strict out, liberal in).
func WriteSingleCoilResponseFromBuffer(pdu []byte) (*WriteSingleCoilResponse, error) {
	address, state, err := decodeAddrState(FunctionWriteSingleCoil, pdu, responseMinLength)
	if err != nil {
		return nil, err
	}
	return &WriteSingleCoilResponse{Address: address, State: state}, nil
}

// WriteSingleRegisterRequest is the request for Write Single Register (FC=0x06).
type WriteSingleRegisterRequest struct {
	Address uint16
	Value   uint16
}

// NewWriteSingleRegisterRequest constructs a request.
func NewWriteSingleRegisterRequest(address, value uint16) (*WriteSingleRegisterRequest, error) {
	return &WriteSingleRegisterRequest{Address: address, Value: value}, nil
}

// WriteSingleRegisterRequestFromOptions constructs from a named field map.
// Recognized keys: "address", "value".
func WriteSingleRegisterRequestFromOptions(opts map[string]any) (*WriteSingleRegisterRequest, error) {
	address, err := optUint16(opts, "address")
	if err != nil {
		return nil, err
	}
	value, err := optUint16(opts, "value")
	if err != nil {
		return nil, err
	}
	return NewWriteSingleRegisterRequest(address, value)
}

func (r *WriteSingleRegisterRequest) FunctionCode() uint8 { return FunctionWriteSingleRegister }

func (r *WriteSingleRegisterRequest) ToBuffer() []byte {
	buf := make([]byte, 5)
	buf[0] = FunctionWriteSingleRegister
	wire.PutUint16(buf[1:3], r.Address)
	wire.PutUint16(buf[3:5], r.Value)
	return buf
}

func (r *WriteSingleRegisterRequest) ExpectedResponseLength() int { return 5 }

func (r *WriteSingleRegisterRequest) String() string {
	return fmt.Sprintf("WriteSingleRegisterRequest{Address: %d, Value: %d}", r.Address, r.Value)
}

// WriteSingleRegisterRequestFromBuffer decodes a request PDU.
func WriteSingleRegisterRequestFromBuffer(pdu []byte) (*WriteSingleRegisterRequest, error) {
	if err := checkMinLength(requestMinLength, FunctionWriteSingleRegister, len(pdu)); err != nil {
		return nil, err
	}
	if pdu[0] != FunctionWriteSingleRegister {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x", pdu[0])}
	}
	return &WriteSingleRegisterRequest{Address: wire.Uint16(pdu[1:3]), Value: wire.Uint16(pdu[3:5])}, nil
}

// WriteSingleRegisterResponse is the response for Write Single Register
// (FC=0x06); it echoes the request's address and value.
type WriteSingleRegisterResponse struct {
	Address uint16
	Value   uint16
}

// NewWriteSingleRegisterResponse constructs a response.
func NewWriteSingleRegisterResponse(address, value uint16) (*WriteSingleRegisterResponse, error) {
	return &WriteSingleRegisterResponse{Address: address, Value: value}, nil
}

func (r *WriteSingleRegisterResponse) FunctionCode() uint8 { return FunctionWriteSingleRegister }

func (r *WriteSingleRegisterResponse) ToBuffer() []byte {
	buf := make([]byte, 5)
	buf[0] = FunctionWriteSingleRegister
	wire.PutUint16(buf[1:3], r.Address)
	wire.PutUint16(buf[3:5], r.Value)
	return buf
}

func (r *WriteSingleRegisterResponse) String() string {
	return fmt.Sprintf("WriteSingleRegisterResponse{Address: %d, Value: %d}", r.Address, r.Value)
}

// WriteSingleRegisterResponseFromBuffer decodes a response PDU.
func WriteSingleRegisterResponseFromBuffer(pdu []byte) (*WriteSingleRegisterResponse, error) {
	if err := checkMinLength(responseMinLength, FunctionWriteSingleRegister, len(pdu)); err != nil {
		return nil, err
	}
	if pdu[0] != FunctionWriteSingleRegister {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x", pdu[0])}
	}
	return &WriteSingleRegisterResponse{Address: wire.Uint16(pdu[1:3]), Value: wire.Uint16(pdu[3:5])}, nil
}
