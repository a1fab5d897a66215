package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteMultipleRegistersRoundTrip(t *testing.T) {
	writeRegisters := []uint16{0x00FF, 0x00FF, 0x00FF}
	req, err := NewReadWriteMultipleRegistersRequest(0x0003, 0x0006, 0x000E, writeRegisters)
	require.NoError(t, err)

	buf := req.ToBuffer()
	assert.Equal(t, uint8(FunctionReadWriteMultipleRegisters), buf[0])

	decoded, err := ReadWriteMultipleRegistersRequestFromBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)

	resp, err := NewReadWriteMultipleRegistersResponse([]byte{0x00, 0x0E, 0x00, 0x0D, 0x00, 0x0C})
	require.NoError(t, err)
	decodedResp, err := ReadWriteMultipleRegistersResponseFromBuffer(resp.ToBuffer())
	require.NoError(t, err)
	assert.Equal(t, resp, decodedResp)
}

func TestNewReadWriteMultipleRegistersRequest_Bounds(t *testing.T) {
	_, err := NewReadWriteMultipleRegistersRequest(0, 126, 0, []uint16{1})
	require.Error(t, err)

	_, err = NewReadWriteMultipleRegistersRequest(0, 1, 0, make([]uint16, 122))
	require.Error(t, err)
}
