package packet

import (
	"fmt"
	"math"
	"strings"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/wire"
)

// ReadHoldingRegistersRequest is the request for Read Holding Registers (FC=0x03).
type ReadHoldingRegistersRequest struct {
	Address  uint16
	Quantity uint16
}

// NewReadHoldingRegistersRequest constructs a request, validating quantity
// falls in 1..125.
func NewReadHoldingRegistersRequest(address, quantity uint16) (*ReadHoldingRegistersRequest, error) {
	if err := validateQuantity(FunctionReadHoldingRegisters, address, int(quantity), 1, 125); err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersRequest{Address: address, Quantity: quantity}, nil
}

// ReadHoldingRegistersRequestFromOptions constructs from a named field map.
// Recognized keys: "address", "quantity".
func ReadHoldingRegistersRequestFromOptions(opts map[string]any) (*ReadHoldingRegistersRequest, error) {
	address, err := optUint16(opts, "address")
	if err != nil {
		return nil, err
	}
	quantity, err := optUint16(opts, "quantity")
	if err != nil {
		return nil, err
	}
	return NewReadHoldingRegistersRequest(address, quantity)
}

func (r *ReadHoldingRegistersRequest) FunctionCode() uint8 { return FunctionReadHoldingRegisters }

func (r *ReadHoldingRegistersRequest) ToBuffer() []byte {
	return encodeReadRequest(FunctionReadHoldingRegisters, r.Address, r.Quantity)
}

func (r *ReadHoldingRegistersRequest) ExpectedResponseLength() int {
	return 2 + 2*int(r.Quantity)
}

func (r *ReadHoldingRegistersRequest) String() string {
	return fmt.Sprintf("ReadHoldingRegistersRequest{Address: %d, Quantity: %d}", r.Address, r.Quantity)
}

// ReadHoldingRegistersRequestFromBuffer decodes a request PDU.
func ReadHoldingRegistersRequestFromBuffer(pdu []byte) (*ReadHoldingRegistersRequest, error) {
	address, quantity, err := decodeReadRequest(FunctionReadHoldingRegisters, pdu)
	if err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersRequest{Address: address, Quantity: quantity}, nil
}

// ReadHoldingRegistersResponse is the response for Read Holding Registers (FC=0x03).
type ReadHoldingRegistersResponse struct {
	// Registers holds the raw register bytes, big-endian, 2 bytes per
	// register. Wrap it with NewRegisters for typed access.
	Registers []byte
}

// NewReadHoldingRegistersResponse constructs a response from raw register
// bytes; len(registers) must be even and non-zero.
func NewReadHoldingRegistersResponse(registers []byte) (*ReadHoldingRegistersResponse, error) {
	if len(registers) == 0 || len(registers)%2 != 0 {
		return nil, &modbus.InvalidStateError{Field: "registers", Reason: "must be a non-zero, even number of bytes"}
	}
	return &ReadHoldingRegistersResponse{Registers: registers}, nil
}

func (r *ReadHoldingRegistersResponse) FunctionCode() uint8 { return FunctionReadHoldingRegisters }

func (r *ReadHoldingRegistersResponse) ToBuffer() []byte {
	buf := make([]byte, 2+len(r.Registers))
	buf[0] = FunctionReadHoldingRegisters
	buf[1] = byte(len(r.Registers))
	copy(buf[2:], r.Registers)
	return buf
}

func (r *ReadHoldingRegistersResponse) String() string {
	return fmt.Sprintf("ReadHoldingRegistersResponse{Registers: %d bytes}", len(r.Registers))
}

// ReadHoldingRegistersResponseFromBuffer decodes a response PDU. byteCount
// must be even and must match the payload length that follows it.
func ReadHoldingRegistersResponseFromBuffer(pdu []byte) (*ReadHoldingRegistersResponse, error) {
	if err := checkMinLength(responseMinLength, FunctionReadHoldingRegisters, len(pdu)); err != nil {
		return nil, err
	}
	byteCount := int(pdu[1])
	if byteCount%2 != 0 {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d is not even", byteCount)}
	}
	if len(pdu) != 2+byteCount {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d does not match payload length %d", byteCount, len(pdu)-2)}
	}
	return &ReadHoldingRegistersResponse{Registers: pdu[2:]}, nil
}

// ReadInputRegistersRequest is the request for Read Input Registers (FC=0x04).
type ReadInputRegistersRequest struct {
	Address  uint16
	Quantity uint16
}

// NewReadInputRegistersRequest constructs a request, validating quantity
// falls in 1..125.
func NewReadInputRegistersRequest(address, quantity uint16) (*ReadInputRegistersRequest, error) {
	if err := validateQuantity(FunctionReadInputRegisters, address, int(quantity), 1, 125); err != nil {
		return nil, err
	}
	return &ReadInputRegistersRequest{Address: address, Quantity: quantity}, nil
}

// ReadInputRegistersRequestFromOptions constructs from a named field map.
// Recognized keys: "address", "quantity".
func ReadInputRegistersRequestFromOptions(opts map[string]any) (*ReadInputRegistersRequest, error) {
	address, err := optUint16(opts, "address")
	if err != nil {
		return nil, err
	}
	quantity, err := optUint16(opts, "quantity")
	if err != nil {
		return nil, err
	}
	return NewReadInputRegistersRequest(address, quantity)
}

func (r *ReadInputRegistersRequest) FunctionCode() uint8 { return FunctionReadInputRegisters }

func (r *ReadInputRegistersRequest) ToBuffer() []byte {
	return encodeReadRequest(FunctionReadInputRegisters, r.Address, r.Quantity)
}

func (r *ReadInputRegistersRequest) ExpectedResponseLength() int {
	return 2 + 2*int(r.Quantity)
}

func (r *ReadInputRegistersRequest) String() string {
	return fmt.Sprintf("ReadInputRegistersRequest{Address: %d, Quantity: %d}", r.Address, r.Quantity)
}

// ReadInputRegistersRequestFromBuffer decodes a request PDU.
func ReadInputRegistersRequestFromBuffer(pdu []byte) (*ReadInputRegistersRequest, error) {
	address, quantity, err := decodeReadRequest(FunctionReadInputRegisters, pdu)
	if err != nil {
		return nil, err
	}
	return &ReadInputRegistersRequest{Address: address, Quantity: quantity}, nil
}

// ReadInputRegistersResponse is the response for Read Input Registers (FC=0x04).
type ReadInputRegistersResponse struct {
	Registers []byte
}

// NewReadInputRegistersResponse constructs a response from raw register bytes.
func NewReadInputRegistersResponse(registers []byte) (*ReadInputRegistersResponse, error) {
	if len(registers) == 0 || len(registers)%2 != 0 {
		return nil, &modbus.InvalidStateError{Field: "registers", Reason: "must be a non-zero, even number of bytes"}
	}
	return &ReadInputRegistersResponse{Registers: registers}, nil
}

func (r *ReadInputRegistersResponse) FunctionCode() uint8 { return FunctionReadInputRegisters }

func (r *ReadInputRegistersResponse) ToBuffer() []byte {
	buf := make([]byte, 2+len(r.Registers))
	buf[0] = FunctionReadInputRegisters
	buf[1] = byte(len(r.Registers))
	copy(buf[2:], r.Registers)
	return buf
}

func (r *ReadInputRegistersResponse) String() string {
	return fmt.Sprintf("ReadInputRegistersResponse{Registers: %d bytes}", len(r.Registers))
}

// ReadInputRegistersResponseFromBuffer decodes a response PDU.
func ReadInputRegistersResponseFromBuffer(pdu []byte) (*ReadInputRegistersResponse, error) {
	if err := checkMinLength(responseMinLength, FunctionReadInputRegisters, len(pdu)); err != nil {
		return nil, err
	}
	byteCount := int(pdu[1])
	if byteCount%2 != 0 {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d is not even", byteCount)}
	}
	if len(pdu) != 2+byteCount {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("byte count %d does not match payload length %d", byteCount, len(pdu)-2)}
	}
	return &ReadInputRegistersResponse{Registers: pdu[2:]}, nil
}

// Word order constants for decoding multi-register numeric values.
// Different PLC vendors disagree on which register of a 32/64-bit value
// comes first on the wire; Registers lets a caller pick.
const (
	BigEndian    = 1
	LittleEndian = 2
	LowWordFirst = 4

	BigEndianLowWordFirst     = BigEndian | LowWordFirst
	BigEndianHighWordFirst    = BigEndian
	LittleEndianLowWordFirst  = LittleEndian | LowWordFirst
	LittleEndianHighWordFirst = LittleEndian
)

// Registers provides typed access over the raw register bytes returned by
// a ReadHoldingRegistersResponse or ReadInputRegistersResponse, addressed
// by the same register address space as the original request.
type Registers struct {
	startAddress uint16
	endAddress   uint16
	data         []byte
}

// NewRegisters wraps raw register bytes (as returned in Registers field of
// a read response) for typed access, anchored at startAddress.
func NewRegisters(data []byte, startAddress uint16) (*Registers, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("packet: data must be at least 2 bytes (1 register)")
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("packet: data must be an even number of bytes")
	}
	return &Registers{
		startAddress: startAddress,
		endAddress:   startAddress + uint16(len(data)/2),
		data:         data,
	}, nil
}

func (r *Registers) register(address uint16) ([]byte, error) {
	if address < r.startAddress || address >= r.endAddress {
		return nil, fmt.Errorf("packet: address %d out of bounds [%d,%d)", address, r.startAddress, r.endAddress)
	}
	i := (address - r.startAddress) * 2
	return r.data[i : i+2], nil
}

func (r *Registers) wideRegister(address uint16, registerCount uint16) ([]byte, error) {
	if address < r.startAddress || address > r.endAddress-registerCount {
		return nil, fmt.Errorf("packet: address %d out of bounds for %d registers", address, registerCount)
	}
	i := (address - r.startAddress) * 2
	return r.data[i : i+2*registerCount], nil
}

// Uint16 reads a single register as an unsigned 16-bit integer.
func (r *Registers) Uint16(address uint16) (uint16, error) {
	b, err := r.register(address)
	if err != nil {
		return 0, err
	}
	return wire.Uint16(b), nil
}

// Int16 reads a single register as a signed 16-bit integer.
func (r *Registers) Int16(address uint16) (int16, error) {
	v, err := r.Uint16(address)
	return int16(v), err
}

// Uint32 reads two registers as an unsigned 32-bit integer, honoring order.
func (r *Registers) Uint32(address uint16, order int) (uint32, error) {
	b, err := r.wideRegister(address, 2)
	if err != nil {
		return 0, err
	}
	return decodeUint32(b, order), nil
}

// Int32 reads two registers as a signed 32-bit integer.
func (r *Registers) Int32(address uint16, order int) (int32, error) {
	v, err := r.Uint32(address, order)
	return int32(v), err
}

func decodeUint32(b []byte, order int) uint32 {
	hi, lo := b[0:2], b[2:4]
	if order&LowWordFirst != 0 {
		hi, lo = lo, hi
	}
	if order&LittleEndian != 0 {
		return uint32(lo[1])<<24 | uint32(lo[0])<<16 | uint32(hi[1])<<8 | uint32(hi[0])
	}
	return uint32(hi[0])<<24 | uint32(hi[1])<<16 | uint32(lo[0])<<8 | uint32(lo[1])
}

// Uint64 reads four registers as an unsigned 64-bit integer, honoring
// order the same way Uint32 does, generalized to the two 32-bit halves.
func (r *Registers) Uint64(address uint16, order int) (uint64, error) {
	b, err := r.wideRegister(address, 4)
	if err != nil {
		return 0, err
	}
	return decodeUint64(b, order), nil
}

// Int64 reads four registers as a signed 64-bit integer.
func (r *Registers) Int64(address uint16, order int) (int64, error) {
	v, err := r.Uint64(address, order)
	return int64(v), err
}

func decodeUint64(b []byte, order int) uint64 {
	hi, lo := b[0:4], b[4:8]
	if order&LowWordFirst != 0 {
		hi, lo = lo, hi
	}
	if order&LittleEndian != 0 {
		return uint64(lo[3])<<56 | uint64(lo[2])<<48 | uint64(lo[1])<<40 | uint64(lo[0])<<32 |
			uint64(hi[3])<<24 | uint64(hi[2])<<16 | uint64(hi[1])<<8 | uint64(hi[0])
	}
	return uint64(hi[0])<<56 | uint64(hi[1])<<48 | uint64(hi[2])<<40 | uint64(hi[3])<<32 |
		uint64(lo[0])<<24 | uint64(lo[1])<<16 | uint64(lo[2])<<8 | uint64(lo[3])
}

// Float32 reads two registers as an IEEE 754 single-precision float,
// honoring order the same way Uint32 does.
func (r *Registers) Float32(address uint16, order int) (float32, error) {
	v, err := r.Uint32(address, order)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Float64 reads four registers as an IEEE 754 double-precision float.
func (r *Registers) Float64(address uint16, order int) (float64, error) {
	v, err := r.Uint64(address, order)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// String reads length bytes starting at address as a NUL-terminated ASCII
// string. The multi-register word order used for numeric decoding does not
// apply here; instead the two bytes of each register are swapped, so each
// register's low byte is read as a character before its high byte.
func (r *Registers) String(address uint16, length uint16) (string, error) {
	if address < r.startAddress {
		return "", fmt.Errorf("packet: address %d under startAddress bound %d", address, r.startAddress)
	}
	start := (address - r.startAddress) * 2
	end := start + length
	if length%2 != 0 {
		end++
	}
	if int(end) > len(r.data) {
		return "", fmt.Errorf("packet: address %d length %d out of bounds", address, length)
	}

	raw := append([]byte(nil), r.data[start:end]...)
	for i := 1; i < len(raw); i += 2 {
		raw[i-1], raw[i] = raw[i], raw[i-1]
	}

	var b strings.Builder
	b.Grow(int(length))
	for _, c := range raw[:length] {
		if c == 0 {
			break
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// Bit checks whether the n-th bit (0 = least significant) of the register
// at address is set.
func (r *Registers) Bit(address uint16, bit uint8) (bool, error) {
	if bit > 15 {
		return false, fmt.Errorf("packet: bit %d out of range for a 16-bit register", bit)
	}
	b, err := r.register(address)
	if err != nil {
		return false, err
	}
	byteIdx, bitIdx := 1, bit
	if bit > 7 {
		byteIdx, bitIdx = 0, bit-8
	}
	return b[byteIdx]&(1<<bitIdx) != 0, nil
}
