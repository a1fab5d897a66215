package packet

import (
	"testing"

	modbus "github.com/ironloop-io/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMultipleCoilsRoundTrip(t *testing.T) {
	coils := []bool{true, false, true, true, false, false, true, true, true, false}
	req, err := NewWriteMultipleCoilsRequest(0x0013, coils)
	require.NoError(t, err)

	buf := req.ToBuffer()
	assert.Equal(t, uint8(0x0F), buf[0])
	assert.Equal(t, byte(2), buf[5]) // byteCount = ceil(10/8) = 2

	decoded, err := WriteMultipleCoilsRequestFromBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, req.Address, decoded.Address)
	assert.Equal(t, coils, decoded.Coils)

	resp, err := NewWriteMultipleCoilsResponse(0x0013, uint16(len(coils)))
	require.NoError(t, err)
	decodedResp, err := WriteMultipleCoilsResponseFromBuffer(resp.ToBuffer())
	require.NoError(t, err)
	assert.Equal(t, resp, decodedResp)
}

func TestNewWriteMultipleCoilsRequest_QuantityBounds(t *testing.T) {
	_, err := NewWriteMultipleCoilsRequest(0, nil)
	require.Error(t, err)
	assert.IsType(t, &modbus.InvalidQuantityError{}, err)

	_, err = NewWriteMultipleCoilsRequest(0, make([]bool, 1969))
	require.Error(t, err)
}

func TestWriteMultipleCoilsRequestFromBuffer_ByteCountMismatch(t *testing.T) {
	// quantity=10 wants byteCount=2, but PDU claims byteCount=1.
	pdu := []byte{0x0F, 0x00, 0x13, 0x00, 0x0A, 0x01, 0xAB}
	_, err := WriteMultipleCoilsRequestFromBuffer(pdu)
	require.Error(t, err)
	assert.IsType(t, &modbus.InvalidResponseDataError{}, err)
}

func TestWriteMultipleRegistersRoundTrip(t *testing.T) {
	registers := []uint16{0x000A, 0x0102}
	req, err := NewWriteMultipleRegistersRequest(0x0001, registers)
	require.NoError(t, err)

	buf := req.ToBuffer()
	assert.Equal(t, []byte{0x10, 0x00, 0x01, 0x00, 0x02, 0x04, 0x00, 0x0A, 0x01, 0x02}, buf)

	decoded, err := WriteMultipleRegistersRequestFromBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)

	resp, err := NewWriteMultipleRegistersResponse(0x0001, uint16(len(registers)))
	require.NoError(t, err)
	decodedResp, err := WriteMultipleRegistersResponseFromBuffer(resp.ToBuffer())
	require.NoError(t, err)
	assert.Equal(t, resp, decodedResp)
}

func TestNewWriteMultipleRegistersRequest_QuantityBounds(t *testing.T) {
	_, err := NewWriteMultipleRegistersRequest(0, make([]uint16, 124))
	require.Error(t, err)
	assert.IsType(t, &modbus.InvalidQuantityError{}, err)

	_, err = NewWriteMultipleRegistersRequest(0, make([]uint16, 123))
	require.NoError(t, err)
}
