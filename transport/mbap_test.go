package transport

import (
	"testing"

	modbus "github.com/ironloop-io/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMBAPFramer_Wrap(t *testing.T) {
	f := NewMBAPFramer()
	adu := f.Wrap([]byte{0x03, 0x00, 0x00, 0x00, 0x0A}, 0x11, 0x0042)
	assert.Equal(t, []byte{0x00, 0x42, 0x00, 0x00, 0x00, 0x06, 0x11, 0x03, 0x00, 0x00, 0x00, 0x0A}, adu)
}

func TestMBAPFramer_ChunkedFeed(t *testing.T) {
	// S3: feeding the first 6 bytes, then the rest, yields one frame.
	f := NewMBAPFramer()
	adu := f.Wrap([]byte{0x03, 0x00, 0x00, 0x00, 0x0A}, 0x11, 0x0042)

	events := f.Feed(adu[:6])
	require.Empty(t, events)

	events = f.Feed(adu[6:])
	require.Len(t, events, 1)
	require.NoError(t, events[0].Err)
	assert.Equal(t, uint16(0x0042), events[0].Frame.TxID)
	assert.Equal(t, uint8(0x11), events[0].Frame.UnitID)
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00, 0x0A}, events[0].Frame.PDU)
}

func TestMBAPFramer_PipelinedFrames(t *testing.T) {
	f := NewMBAPFramer()
	first := f.Wrap([]byte{0x03, 0x00, 0x00, 0x00, 0x0A}, 0x01, 0x0001)
	second := f.Wrap([]byte{0x04, 0x00, 0x00, 0x00, 0x02}, 0x01, 0x0002)

	events := f.Feed(append(append([]byte{}, first...), second...))
	require.Len(t, events, 2)
	assert.Equal(t, uint16(0x0001), events[0].Frame.TxID)
	assert.Equal(t, uint16(0x0002), events[1].Frame.TxID)
}

func TestMBAPFramer_InvalidProtocolID(t *testing.T) {
	f := NewMBAPFramer()
	bad := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x02, 0x11, 0x03}
	events := f.Feed(bad)
	require.Len(t, events, 1)
	assert.IsType(t, &modbus.InvalidResponseDataError{}, events[0].Err)
}

func TestMBAPFramer_Reset(t *testing.T) {
	f := NewMBAPFramer()
	f.Feed([]byte{0x00, 0x01})
	f.Reset()
	events := f.Feed([]byte{0x00, 0x02, 0x00, 0x00, 0x00, 0x02, 0x01, 0x05})
	require.Len(t, events, 1)
	assert.Equal(t, uint16(0x0002), events[0].Frame.TxID)
}
