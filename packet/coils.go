package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

// ReadCoilsRequest is the request for Read Coils (FC=0x01).
type ReadCoilsRequest struct {
	Address  uint16
	Quantity uint16
}

// NewReadCoilsRequest constructs a Read Coils request, validating that
// quantity falls in 1..2000 and address+quantity-1 does not overflow.
func NewReadCoilsRequest(address, quantity uint16) (*ReadCoilsRequest, error) {
	if err := validateQuantity(FunctionReadCoils, address, int(quantity), 1, 2000); err != nil {
		return nil, err
	}
	return &ReadCoilsRequest{Address: address, Quantity: quantity}, nil
}

// ReadCoilsRequestFromOptions constructs a Read Coils request from a named
// field map. Recognized keys: "address", "quantity".
func ReadCoilsRequestFromOptions(opts map[string]any) (*ReadCoilsRequest, error) {
	address, err := optUint16(opts, "address")
	if err != nil {
		return nil, err
	}
	quantity, err := optUint16(opts, "quantity")
	if err != nil {
		return nil, err
	}
	return NewReadCoilsRequest(address, quantity)
}

func (r *ReadCoilsRequest) FunctionCode() uint8 { return FunctionReadCoils }

func (r *ReadCoilsRequest) ToBuffer() []byte {
	return encodeReadRequest(FunctionReadCoils, r.Address, r.Quantity)
}

func (r *ReadCoilsRequest) ExpectedResponseLength() int {
	return 2 + int((r.Quantity+7)/8)
}

func (r *ReadCoilsRequest) String() string {
	return fmt.Sprintf("ReadCoilsRequest{Address: %d, Quantity: %d}", r.Address, r.Quantity)
}

// ReadCoilsRequestFromBuffer decodes a Read Coils request PDU.
func ReadCoilsRequestFromBuffer(pdu []byte) (*ReadCoilsRequest, error) {
	address, quantity, err := decodeReadRequest(FunctionReadCoils, pdu)
	if err != nil {
		return nil, err
	}
	return &ReadCoilsRequest{Address: address, Quantity: quantity}, nil
}

// ReadCoilsResponse is the response for Read Coils (FC=0x01).
type ReadCoilsResponse struct {
	Coils []bool
}

// NewReadCoilsResponse constructs a Read Coils response from coil values.
func NewReadCoilsResponse(coils []bool) (*ReadCoilsResponse, error) {
	if len(coils) == 0 || len(coils) > 2000 {
		return nil, &modbus.InvalidQuantityError{FunctionCode: FunctionReadCoils, Quantity: len(coils), Min: 1, Max: 2000}
	}
	return &ReadCoilsResponse{Coils: coils}, nil
}

func (r *ReadCoilsResponse) FunctionCode() uint8 { return FunctionReadCoils }

func (r *ReadCoilsResponse) ToBuffer() []byte {
	packed := wire.PackBits(r.Coils)
	buf := make([]byte, 2+len(packed))
	buf[0] = FunctionReadCoils
	buf[1] = byte(len(packed))
	copy(buf[2:], packed)
	return buf
}

func (r *ReadCoilsResponse) String() string {
	return fmt.Sprintf("ReadCoilsResponse{Coils: %d values}", len(r.Coils))
}

// ReadCoilsResponseFromBuffer decodes a Read Coils response PDU. The
// number of coils returned is byteCount*8; a caller that requested a
// quantity not a multiple of 8 should only use the first Quantity values
// from the matching request, since the trailing padding bits are
// unspecified.
func ReadCoilsResponseFromBuffer(pdu []byte) (*ReadCoilsResponse, error) {
	if err := checkMinLength(responseMinLength, FunctionReadCoils, len(pdu)); err != nil {
		return nil, err
	}
	byteCount := int(pdu[1])
	if len(pdu) != 2+byteCount {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d does not match payload length %d", byteCount, len(pdu)-2)}
	}
	return &ReadCoilsResponse{Coils: wire.UnpackBits(pdu[2:], byteCount*8)}, nil
}

// ReadDiscreteInputsRequest is the request for Read Discrete Inputs (FC=0x02).
type ReadDiscreteInputsRequest struct {
	Address  uint16
	Quantity uint16
}

// NewReadDiscreteInputsRequest constructs a Read Discrete Inputs request.
func NewReadDiscreteInputsRequest(address, quantity uint16) (*ReadDiscreteInputsRequest, error) {
	if err := validateQuantity(FunctionReadDiscreteInputs, address, int(quantity), 1, 2000); err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsRequest{Address: address, Quantity: quantity}, nil
}

// ReadDiscreteInputsRequestFromOptions constructs from a named field map.
// Recognized keys: "address", "quantity".
func ReadDiscreteInputsRequestFromOptions(opts map[string]any) (*ReadDiscreteInputsRequest, error) {
	address, err := optUint16(opts, "address")
	if err != nil {
		return nil, err
	}
	quantity, err := optUint16(opts, "quantity")
	if err != nil {
		return nil, err
	}
	return NewReadDiscreteInputsRequest(address, quantity)
}

func (r *ReadDiscreteInputsRequest) FunctionCode() uint8 { return FunctionReadDiscreteInputs }

func (r *ReadDiscreteInputsRequest) ToBuffer() []byte {
	return encodeReadRequest(FunctionReadDiscreteInputs, r.Address, r.Quantity)
}

func (r *ReadDiscreteInputsRequest) ExpectedResponseLength() int {
	return 2 + int((r.Quantity+7)/8)
}

func (r *ReadDiscreteInputsRequest) String() string {
	return fmt.Sprintf("ReadDiscreteInputsRequest{Address: %d, Quantity: %d}", r.Address, r.Quantity)
}

// ReadDiscreteInputsRequestFromBuffer decodes a Read Discrete Inputs
// request PDU.
func ReadDiscreteInputsRequestFromBuffer(pdu []byte) (*ReadDiscreteInputsRequest, error) {
	address, quantity, err := decodeReadRequest(FunctionReadDiscreteInputs, pdu)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsRequest{Address: address, Quantity: quantity}, nil
}

// ReadDiscreteInputsResponse is the response for Read Discrete Inputs (FC=0x02).
type ReadDiscreteInputsResponse struct {
	Inputs []bool
}

// NewReadDiscreteInputsResponse constructs a response from input values.
func NewReadDiscreteInputsResponse(inputs []bool) (*ReadDiscreteInputsResponse, error) {
	if len(inputs) == 0 || len(inputs) > 2000 {
		return nil, &modbus.InvalidQuantityError{FunctionCode: FunctionReadDiscreteInputs, Quantity: len(inputs), Min: 1, Max: 2000}
	}
	return &ReadDiscreteInputsResponse{Inputs: inputs}, nil
}

func (r *ReadDiscreteInputsResponse) FunctionCode() uint8 { return FunctionReadDiscreteInputs }

func (r *ReadDiscreteInputsResponse) ToBuffer() []byte {
	packed := wire.PackBits(r.Inputs)
	buf := make([]byte, 2+len(packed))
	buf[0] = FunctionReadDiscreteInputs
	buf[1] = byte(len(packed))
	copy(buf[2:], packed)
	return buf
}

func (r *ReadDiscreteInputsResponse) String() string {
	return fmt.Sprintf("ReadDiscreteInputsResponse{Inputs: %d values}", len(r.Inputs))
}

// ReadDiscreteInputsResponseFromBuffer decodes a Read Discrete Inputs
// response PDU, with the same trailing-padding caveat as ReadCoilsResponse.
func ReadDiscreteInputsResponseFromBuffer(pdu []byte) (*ReadDiscreteInputsResponse, error) {
	if err := checkMinLength(responseMinLength, FunctionReadDiscreteInputs, len(pdu)); err != nil {
		return nil, err
	}
	byteCount := int(pdu[1])
	if len(pdu) != 2+byteCount {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d does not match payload length %d", byteCount, len(pdu)-2)}
	}
	return &ReadDiscreteInputsResponse{Inputs: wire.UnpackBits(pdu[2:], byteCount*8)}, nil
}
