package packet

import (
	"testing"

	modbus "github.com/ironloop-io/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSingleCoilResponse_ToBuffer(t *testing.T) {
	resp, err := NewWriteSingleCoilResponse(0x1234, true)
	require.NoError(t, err)

	buf := resp.ToBuffer()
	require.Len(t, buf, 5)
	assert.Equal(t, []byte{0x05, 0x12, 0x34, 0xFF, 0x00}, buf)
}

func TestWriteSingleCoilResponseFromBuffer(t *testing.T) {
	var testCases = []struct {
		name      string
		when      []byte
		expect    *WriteSingleCoilResponse
		expectErr any
	}{
		{
			name:   "ok, state true",
			when:   []byte{0x05, 0x12, 0x34, 0xFF, 0x00},
			expect: &WriteSingleCoilResponse{Address: 0x1234, State: true},
		},
		{
			name:   "ok, state false",
			when:   []byte{0x05, 0x12, 0x34, 0x00, 0x00},
			expect: &WriteSingleCoilResponse{Address: 0x1234, State: false},
		},
		{
			name:   "ok, garbage state value decodes false (liberal decode)",
			when:   []byte{0x05, 0x12, 0x34, 0x12, 0x34},
			expect: &WriteSingleCoilResponse{Address: 0x1234, State: false},
		},
		{
			name:      "nok, too short",
			when:      []byte{0x05, 0x12, 0x34, 0x00},
			expectErr: &modbus.IncompleteResponseFrameError{},
		},
		{
			name:      "nok, wrong function code",
			when:      []byte{0x03, 0x00, 0x00, 0x00, 0x01},
			expectErr: &modbus.InvalidResponseDataError{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WriteSingleCoilResponseFromBuffer(tc.when)
			if tc.expectErr != nil {
				require.Error(t, err)
				assert.IsType(t, tc.expectErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestWriteSingleCoilRoundTrip(t *testing.T) {
	req, err := NewWriteSingleCoilRequest(0x0064, true)
	require.NoError(t, err)

	decoded, err := WriteSingleCoilRequestFromBuffer(req.ToBuffer())
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestWriteSingleRegisterRoundTrip(t *testing.T) {
	req, err := NewWriteSingleRegisterRequest(0x0001, 0x0003)
	require.NoError(t, err)

	decoded, err := WriteSingleRegisterRequestFromBuffer(req.ToBuffer())
	require.NoError(t, err)
	assert.Equal(t, req, decoded)

	resp, err := NewWriteSingleRegisterResponse(0x0001, 0x0003)
	require.NoError(t, err)
	decodedResp, err := WriteSingleRegisterResponseFromBuffer(resp.ToBuffer())
	require.NoError(t, err)
	assert.Equal(t, resp, decodedResp)
}
