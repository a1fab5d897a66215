package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

// ReadWriteMultipleRegistersRequest is the request for Read/Write Multiple
// Registers (FC=0x17): writes one register block then reads another in a
// single round trip. Supplemented from the wider Modbus corpus; not named
// in the protocol core but not excluded either.
type ReadWriteMultipleRegistersRequest struct {
	ReadAddress    uint16
	ReadQuantity   uint16
	WriteAddress   uint16
	WriteRegisters []uint16
}

// NewReadWriteMultipleRegistersRequest constructs a request, validating the
// read quantity falls in 1..125 and the write register count in 1..121.
func NewReadWriteMultipleRegistersRequest(readAddress, readQuantity, writeAddress uint16, writeRegisters []uint16) (*ReadWriteMultipleRegistersRequest, error) {
	if err := validateQuantity(FunctionReadWriteMultipleRegisters, readAddress, int(readQuantity), 1, 125); err != nil {
		return nil, err
	}
	if err := validateQuantity(FunctionReadWriteMultipleRegisters, writeAddress, len(writeRegisters), 1, 121); err != nil {
		return nil, err
	}
	return &ReadWriteMultipleRegistersRequest{
		ReadAddress:    readAddress,
		ReadQuantity:   readQuantity,
		WriteAddress:   writeAddress,
		WriteRegisters: writeRegisters,
	}, nil
}

// ReadWriteMultipleRegistersRequestFromOptions constructs from a named
// field map. Recognized keys: "readAddress", "readQuantity",
// "writeAddress", "writeRegisters".
func ReadWriteMultipleRegistersRequestFromOptions(opts map[string]any) (*ReadWriteMultipleRegistersRequest, error) {
	readAddress, err := optUint16(opts, "readAddress")
	if err != nil {
		return nil, err
	}
	readQuantity, err := optUint16(opts, "readQuantity")
	if err != nil {
		return nil, err
	}
	writeAddress, err := optUint16(opts, "writeAddress")
	if err != nil {
		return nil, err
	}
	writeRegisters, err := optUint16Slice(opts, "writeRegisters")
	if err != nil {
		return nil, err
	}
	return NewReadWriteMultipleRegistersRequest(readAddress, readQuantity, writeAddress, writeRegisters)
}

func (r *ReadWriteMultipleRegistersRequest) FunctionCode() uint8 {
	return FunctionReadWriteMultipleRegisters
}

func (r *ReadWriteMultipleRegistersRequest) ToBuffer() []byte {
	byteCount := 2 * len(r.WriteRegisters)
	buf := make([]byte, 10+byteCount)
	buf[0] = FunctionReadWriteMultipleRegisters
	wire.PutUint16(buf[1:3], r.ReadAddress)
	wire.PutUint16(buf[3:5], r.ReadQuantity)
	wire.PutUint16(buf[5:7], r.WriteAddress)
	wire.PutUint16(buf[7:9], uint16(len(r.WriteRegisters)))
	buf[9] = byte(byteCount)
	for i, v := range r.WriteRegisters {
		wire.PutUint16(buf[10+2*i:12+2*i], v)
	}
	return buf
}

func (r *ReadWriteMultipleRegistersRequest) ExpectedResponseLength() int {
	return 2 + 2*int(r.ReadQuantity)
}

func (r *ReadWriteMultipleRegistersRequest) String() string {
	return fmt.Sprintf("ReadWriteMultipleRegistersRequest{ReadAddress: %d, ReadQuantity: %d, WriteAddress: %d, WriteRegisters: %d values}",
		r.ReadAddress, r.ReadQuantity, r.WriteAddress, len(r.WriteRegisters))
}

// ReadWriteMultipleRegistersRequestFromBuffer decodes a request PDU,
// checking byteCount equals 2*writeQuantity.
func ReadWriteMultipleRegistersRequestFromBuffer(pdu []byte) (*ReadWriteMultipleRegistersRequest, error) {
	if err := checkMinLength(requestMinLength, FunctionReadWriteMultipleRegisters, len(pdu)); err != nil {
		return nil, err
	}
	if pdu[0] != FunctionReadWriteMultipleRegisters {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x", pdu[0])}
	}
	readAddress := wire.Uint16(pdu[1:3])
	readQuantity := wire.Uint16(pdu[3:5])
	writeAddress := wire.Uint16(pdu[5:7])
	writeQuantity := wire.Uint16(pdu[7:9])
	byteCount := int(pdu[9])
	if byteCount != 2*int(writeQuantity) {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d does not match expected %d for write quantity %d", byteCount, 2*writeQuantity, writeQuantity)}
	}
	if len(pdu) != 10+byteCount {
		return nil, &modbus.IncompleteResponseFrameError{Wanted: 10 + byteCount, Got: len(pdu)}
	}
	registers := make([]uint16, writeQuantity)
	for i := range registers {
		registers[i] = wire.Uint16(pdu[10+2*i : 12+2*i])
	}
	return &ReadWriteMultipleRegistersRequest{
		ReadAddress:    readAddress,
		ReadQuantity:   readQuantity,
		WriteAddress:   writeAddress,
		WriteRegisters: registers,
	}, nil
}

// ReadWriteMultipleRegistersResponse is the response for Read/Write
// Multiple Registers (FC=0x17); it carries only the read-back registers,
// in the same raw-bytes shape as ReadHoldingRegistersResponse.
type ReadWriteMultipleRegistersResponse struct {
	Registers []byte
}

// NewReadWriteMultipleRegistersResponse constructs a response from raw
// register bytes; len(registers) must be even and non-zero.
func NewReadWriteMultipleRegistersResponse(registers []byte) (*ReadWriteMultipleRegistersResponse, error) {
	if len(registers) == 0 || len(registers)%2 != 0 {
		return nil, &modbus.InvalidStateError{Field: "registers", Reason: "must be a non-zero, even number of bytes"}
	}
	return &ReadWriteMultipleRegistersResponse{Registers: registers}, nil
}

func (r *ReadWriteMultipleRegistersResponse) FunctionCode() uint8 {
	return FunctionReadWriteMultipleRegisters
}

func (r *ReadWriteMultipleRegistersResponse) ToBuffer() []byte {
	buf := make([]byte, 2+len(r.Registers))
	buf[0] = FunctionReadWriteMultipleRegisters
	buf[1] = byte(len(r.Registers))
	copy(buf[2:], r.Registers)
	return buf
}

func (r *ReadWriteMultipleRegistersResponse) String() string {
	return fmt.Sprintf("ReadWriteMultipleRegistersResponse{Registers: %d bytes}", len(r.Registers))
}

// ReadWriteMultipleRegistersResponseFromBuffer decodes a response PDU.
func ReadWriteMultipleRegistersResponseFromBuffer(pdu []byte) (*ReadWriteMultipleRegistersResponse, error) {
	if err := checkMinLength(responseMinLength, FunctionReadWriteMultipleRegisters, len(pdu)); err != nil {
		return nil, err
	}
	byteCount := int(pdu[1])
	if byteCount%2 != 0 {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d is not even", byteCount)}
	}
	if len(pdu) != 2+byteCount {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d does not match payload length %d", byteCount, len(pdu)-2)}
	}
	return &ReadWriteMultipleRegistersResponse{Registers: pdu[2:]}, nil
}
