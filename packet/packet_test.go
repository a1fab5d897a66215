package packet

import (
	"testing"

	modbus "github.com/ironloop-io/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_ExceptionTakesPriority(t *testing.T) {
	// S5: ReadCoils(addr=0,qty=1) answered with 81 02 resolves as an
	// exception, not an attempted ReadCoilsResponse decode.
	resp, err := ParseResponse(FunctionReadCoils, []byte{0x81, 0x02})
	require.NoError(t, err)

	exc, ok := resp.(*ExceptionResponse)
	require.True(t, ok)
	assert.Equal(t, uint8(0x01), exc.Function)
	assert.Equal(t, ExcIllegalDataAddress, exc.Code)
}

func TestParseResponse_FunctionCodeMismatch(t *testing.T) {
	_, err := ParseResponse(FunctionReadCoils, []byte{0x03, 0x02, 0x00, 0x00})
	require.Error(t, err)
	assert.IsType(t, &modbus.InvalidResponseDataError{}, err)
}

func TestParseResponse_EmptyBuffer(t *testing.T) {
	_, err := ParseResponse(FunctionReadCoils, nil)
	require.Error(t, err)
	assert.IsType(t, &modbus.IncompleteResponseFrameError{}, err)
}

func TestParseResponse_Dispatch(t *testing.T) {
	resp, err := ParseResponse(FunctionReadHoldingRegisters, []byte{0x03, 0x02, 0x00, 0x0A})
	require.NoError(t, err)
	got, ok := resp.(*ReadHoldingRegistersResponse)
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x0A}, got.Registers)
}
