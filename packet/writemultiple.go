package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

// encodeAddrQuantity builds the 5-byte PDU shared by WriteMultipleCoils and
// WriteMultipleRegisters responses: function code + address + quantity.
func encodeAddrQuantity(fc uint8, address, quantity uint16) []byte {
	buf := make([]byte, 5)
	buf[0] = fc
	wire.PutUint16(buf[1:3], address)
	wire.PutUint16(buf[3:5], quantity)
	return buf
}

func decodeAddrQuantity(fc uint8, pdu []byte) (address, quantity uint16, err error) {
	if err := checkMinLength(responseMinLength, fc, len(pdu)); err != nil {
		return 0, 0, err
	}
	if pdu[0] != fc {
		return 0, 0, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x, wanted 0x%02x", pdu[0], fc)}
	}
	return wire.Uint16(pdu[1:3]), wire.Uint16(pdu[3:5]), nil
}

// WriteMultipleCoilsRequest is the request for Write Multiple Coils (FC=0x0F).
type WriteMultipleCoilsRequest struct {
	Address uint16
	Coils   []bool
}

// NewWriteMultipleCoilsRequest constructs a request, validating that the
// number of coils falls in 1..1968 and the address range does not overflow.
func NewWriteMultipleCoilsRequest(address uint16, coils []bool) (*WriteMultipleCoilsRequest, error) {
	if err := validateQuantity(FunctionWriteMultipleCoils, address, len(coils), 1, 1968); err != nil {
		return nil, err
	}
	return &WriteMultipleCoilsRequest{Address: address, Coils: coils}, nil
}

// WriteMultipleCoilsRequestFromOptions constructs from a named field map.
// Recognized keys: "address", "coils".
func WriteMultipleCoilsRequestFromOptions(opts map[string]any) (*WriteMultipleCoilsRequest, error) {
	address, err := optUint16(opts, "address")
	if err != nil {
		return nil, err
	}
	coils, err := optBoolSlice(opts, "coils")
	if err != nil {
		return nil, err
	}
	return NewWriteMultipleCoilsRequest(address, coils)
}

func (r *WriteMultipleCoilsRequest) FunctionCode() uint8 { return FunctionWriteMultipleCoils }

func (r *WriteMultipleCoilsRequest) ToBuffer() []byte {
	packed := wire.PackBits(r.Coils)
	buf := make([]byte, 6+len(packed))
	buf[0] = FunctionWriteMultipleCoils
	wire.PutUint16(buf[1:3], r.Address)
	wire.PutUint16(buf[3:5], uint16(len(r.Coils)))
	buf[5] = byte(len(packed))
	copy(buf[6:], packed)
	return buf
}

func (r *WriteMultipleCoilsRequest) ExpectedResponseLength() int { return 5 }

func (r *WriteMultipleCoilsRequest) String() string {
	return fmt.Sprintf("WriteMultipleCoilsRequest{Address: %d, Coils: %d values}", r.Address, len(r.Coils))
}

// WriteMultipleCoilsRequestFromBuffer decodes a request PDU, checking that
// byteCount equals ceil(quantity/8).
func WriteMultipleCoilsRequestFromBuffer(pdu []byte) (*WriteMultipleCoilsRequest, error) {
	if err := checkMinLength(requestMinLength, FunctionWriteMultipleCoils, len(pdu)); err != nil {
		return nil, err
	}
	if pdu[0] != FunctionWriteMultipleCoils {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x", pdu[0])}
	}
	address := wire.Uint16(pdu[1:3])
	quantity := wire.Uint16(pdu[3:5])
	byteCount := int(pdu[5])
	wantByteCount := int((quantity + 7) / 8)
	if byteCount != wantByteCount {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d does not match expected %d for quantity %d", byteCount, wantByteCount, quantity)}
	}
	if len(pdu) != 6+byteCount {
		return nil, &modbus.IncompleteResponseFrameError{Wanted: 6 + byteCount, Got: len(pdu)}
	}
	return &WriteMultipleCoilsRequest{Address: address, Coils: wire.UnpackBits(pdu[6:], int(quantity))}, nil
}

// WriteMultipleCoilsResponse is the response for Write Multiple Coils
// (FC=0x0F); it echoes the request's address and quantity written.
type WriteMultipleCoilsResponse struct {
	Address  uint16
	Quantity uint16
}

// NewWriteMultipleCoilsResponse constructs a response.
func NewWriteMultipleCoilsResponse(address, quantity uint16) (*WriteMultipleCoilsResponse, error) {
	return &WriteMultipleCoilsResponse{Address: address, Quantity: quantity}, nil
}

func (r *WriteMultipleCoilsResponse) FunctionCode() uint8 { return FunctionWriteMultipleCoils }

func (r *WriteMultipleCoilsResponse) ToBuffer() []byte {
	return encodeAddrQuantity(FunctionWriteMultipleCoils, r.Address, r.Quantity)
}

func (r *WriteMultipleCoilsResponse) String() string {
	return fmt.Sprintf("WriteMultipleCoilsResponse{Address: %d, Quantity: %d}", r.Address, r.Quantity)
}

// WriteMultipleCoilsResponseFromBuffer decodes a response PDU.
func WriteMultipleCoilsResponseFromBuffer(pdu []byte) (*WriteMultipleCoilsResponse, error) {
	address, quantity, err := decodeAddrQuantity(FunctionWriteMultipleCoils, pdu)
	if err != nil {
		return nil, err
	}
	return &WriteMultipleCoilsResponse{Address: address, Quantity: quantity}, nil
}

// WriteMultipleRegistersRequest is the request for Write Multiple Registers (FC=0x10).
type WriteMultipleRegistersRequest struct {
	Address   uint16
	Registers []uint16
}

// NewWriteMultipleRegistersRequest constructs a request, validating that
// the number of registers falls in 1..123.
func NewWriteMultipleRegistersRequest(address uint16, registers []uint16) (*WriteMultipleRegistersRequest, error) {
	if err := validateQuantity(FunctionWriteMultipleRegisters, address, len(registers), 1, 123); err != nil {
		return nil, err
	}
	return &WriteMultipleRegistersRequest{Address: address, Registers: registers}, nil
}

// WriteMultipleRegistersRequestFromOptions constructs from a named field
// map. Recognized keys: "address", "registers".
func WriteMultipleRegistersRequestFromOptions(opts map[string]any) (*WriteMultipleRegistersRequest, error) {
	address, err := optUint16(opts, "address")
	if err != nil {
		return nil, err
	}
	registers, err := optUint16Slice(opts, "registers")
	if err != nil {
		return nil, err
	}
	return NewWriteMultipleRegistersRequest(address, registers)
}

func (r *WriteMultipleRegistersRequest) FunctionCode() uint8 { return FunctionWriteMultipleRegisters }

func (r *WriteMultipleRegistersRequest) ToBuffer() []byte {
	byteCount := 2 * len(r.Registers)
	buf := make([]byte, 6+byteCount)
	buf[0] = FunctionWriteMultipleRegisters
	wire.PutUint16(buf[1:3], r.Address)
	wire.PutUint16(buf[3:5], uint16(len(r.Registers)))
	buf[5] = byte(byteCount)
	for i, v := range r.Registers {
		wire.PutUint16(buf[6+2*i:8+2*i], v)
	}
	return buf
}

func (r *WriteMultipleRegistersRequest) ExpectedResponseLength() int { return 5 }

func (r *WriteMultipleRegistersRequest) String() string {
	return fmt.Sprintf("WriteMultipleRegistersRequest{Address: %d, Registers: %d values}", r.Address, len(r.Registers))
}

// WriteMultipleRegistersRequestFromBuffer decodes a request PDU, checking
// byteCount equals 2*quantity.
func WriteMultipleRegistersRequestFromBuffer(pdu []byte) (*WriteMultipleRegistersRequest, error) {
	if err := checkMinLength(requestMinLength, FunctionWriteMultipleRegisters, len(pdu)); err != nil {
		return nil, err
	}
	if pdu[0] != FunctionWriteMultipleRegisters {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x", pdu[0])}
	}
	address := wire.Uint16(pdu[1:3])
	quantity := wire.Uint16(pdu[3:5])
	byteCount := int(pdu[5])
	if byteCount != 2*int(quantity) {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d does not match expected %d for quantity %d", byteCount, 2*quantity, quantity)}
	}
	if len(pdu) != 6+byteCount {
		return nil, &modbus.IncompleteResponseFrameError{Wanted: 6 + byteCount, Got: len(pdu)}
	}
	registers := make([]uint16, quantity)
	for i := range registers {
		registers[i] = wire.Uint16(pdu[6+2*i : 8+2*i])
	}
	return &WriteMultipleRegistersRequest{Address: address, Registers: registers}, nil
}

// WriteMultipleRegistersResponse is the response for Write Multiple
// Registers (FC=0x10); it echoes the request's address and quantity written.
type WriteMultipleRegistersResponse struct {
	Address  uint16
	Quantity uint16
}

// NewWriteMultipleRegistersResponse constructs a response.
func NewWriteMultipleRegistersResponse(address, quantity uint16) (*WriteMultipleRegistersResponse, error) {
	return &WriteMultipleRegistersResponse{Address: address, Quantity: quantity}, nil
}

func (r *WriteMultipleRegistersResponse) FunctionCode() uint8 { return FunctionWriteMultipleRegisters }

func (r *WriteMultipleRegistersResponse) ToBuffer() []byte {
	return encodeAddrQuantity(FunctionWriteMultipleRegisters, r.Address, r.Quantity)
}

func (r *WriteMultipleRegistersResponse) String() string {
	return fmt.Sprintf("WriteMultipleRegistersResponse{Address: %d, Quantity: %d}", r.Address, r.Quantity)
}

// WriteMultipleRegistersResponseFromBuffer decodes a response PDU.
func WriteMultipleRegistersResponseFromBuffer(pdu []byte) (*WriteMultipleRegistersResponse, error) {
	address, quantity, err := decodeAddrQuantity(FunctionWriteMultipleRegisters, pdu)
	if err != nil {
		return nil, err
	}
	return &WriteMultipleRegistersResponse{Address: address, Quantity: quantity}, nil
}
