package packet

import (
	"testing"

	modbus "github.com/ironloop-io/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCoilsRequestRoundTrip(t *testing.T) {
	req, err := NewReadCoilsRequest(0x0013, 0x0025)
	require.NoError(t, err)

	buf := req.ToBuffer()
	assert.Equal(t, []byte{0x01, 0x00, 0x13, 0x00, 0x25}, buf)

	decoded, err := ReadCoilsRequestFromBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestNewReadCoilsRequest_QuantityBounds(t *testing.T) {
	_, err := NewReadCoilsRequest(0, 0)
	require.Error(t, err)
	assert.IsType(t, &modbus.InvalidQuantityError{}, err)

	_, err = NewReadCoilsRequest(0, 2001)
	require.Error(t, err)
	assert.IsType(t, &modbus.InvalidQuantityError{}, err)

	_, err = NewReadCoilsRequest(0, 2000)
	require.NoError(t, err)
}

func TestReadCoilsResponseFromBuffer(t *testing.T) {
	var testCases = []struct {
		name      string
		when      []byte
		expect    []bool
		expectErr bool
	}{
		{
			name:   "ok",
			when:   []byte{0x01, 0x01, 0x05},
			expect: []bool{true, false, true, false, false, false, false, false},
		},
		{
			name:      "nok, byte count mismatch",
			when:      []byte{0x01, 0x02, 0x05},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadCoilsResponseFromBuffer(tc.when)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got.Coils)
		})
	}
}

func TestReadDiscreteInputsRoundTrip(t *testing.T) {
	req, err := NewReadDiscreteInputsRequest(0x00C4, 0x0016)
	require.NoError(t, err)

	decoded, err := ReadDiscreteInputsRequestFromBuffer(req.ToBuffer())
	require.NoError(t, err)
	assert.Equal(t, req, decoded)

	resp, err := NewReadDiscreteInputsResponse([]bool{true, true, false, true, true, false, true, true})
	require.NoError(t, err)

	decodedResp, err := ReadDiscreteInputsResponseFromBuffer(resp.ToBuffer())
	require.NoError(t, err)
	assert.Equal(t, resp, decodedResp)
}
