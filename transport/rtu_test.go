package transport

import (
	"testing"

	modbus "github.com/ironloop-io/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRTUFramer_Wrap(t *testing.T) {
	f := NewRTUFramer(0)
	adu := f.Wrap([]byte{0x05, 0x12, 0x34, 0xFF, 0x00}, 0x0A, 0)
	assert.Equal(t, []byte{0x0A, 0x05, 0x12, 0x34, 0xFF, 0x00, 0xC9, 0xF7}, adu)
}

func TestRTUFramer_WrapThenFeedThenIdle(t *testing.T) {
	// S2: wrapping, then feeding the bytes followed by an idle gap,
	// yields a single frame matching the original unit and PDU.
	f := NewRTUFramer(0)
	adu := f.Wrap([]byte{0x05, 0x12, 0x34, 0xFF, 0x00}, 0x0A, 0)

	events := f.Feed(adu)
	assert.Empty(t, events, "no frame before the idle gap fires")

	events = f.Idle()
	require.Len(t, events, 1)
	require.NoError(t, events[0].Err)
	assert.Equal(t, uint8(0x0A), events[0].Frame.UnitID)
	assert.Equal(t, []byte{0x05, 0x12, 0x34, 0xFF, 0x00}, events[0].Frame.PDU)
}

func TestRTUFramer_ChunkedFeedMatchesSingleFeed(t *testing.T) {
	// Invariant 2: any partitioning of the same bytes into chunks
	// produces the same single frame once idle fires.
	f := NewRTUFramer(0)
	adu := f.Wrap([]byte{0x03, 0x00, 0x6B, 0x00, 0x03}, 0x11, 0)

	for _, b := range adu {
		assert.Empty(t, f.Feed([]byte{b}))
	}
	events := f.Idle()
	require.Len(t, events, 1)
	assert.Equal(t, uint8(0x11), events[0].Frame.UnitID)
	assert.Equal(t, []byte{0x03, 0x00, 0x6B, 0x00, 0x03}, events[0].Frame.PDU)
}

func TestRTUFramer_ExpectBytesShortCircuitsIdle(t *testing.T) {
	f := NewRTUFramer(0)
	adu := f.Wrap([]byte{0x01, 0x01, 0x05}, 0x01, 0)
	f.ExpectBytes(len(adu))

	events := f.Feed(adu)
	require.Len(t, events, 1)
	require.NoError(t, events[0].Err)
}

func TestRTUFramer_InvalidChecksum(t *testing.T) {
	f := NewRTUFramer(0)
	adu := f.Wrap([]byte{0x05, 0x12, 0x34, 0xFF, 0x00}, 0x0A, 0)
	adu[2] ^= 0xFF // flip a byte that is not part of the trailing CRC

	events := f.Feed(adu)
	require.Empty(t, events)
	events = f.Idle()
	require.Len(t, events, 1)
	assert.IsType(t, &modbus.InvalidChecksumError{}, events[0].Err)
}

func TestRTUFramer_TooShort(t *testing.T) {
	f := NewRTUFramer(0)
	events := f.Feed([]byte{0x0A, 0x05, 0x12})
	require.Empty(t, events)
	events = f.Idle()
	require.Len(t, events, 1)
	assert.IsType(t, &modbus.IncompleteResponseFrameError{}, events[0].Err)
}

func TestRTUFramer_Reset(t *testing.T) {
	f := NewRTUFramer(0)
	f.Feed([]byte{0x0A, 0x05})
	f.Reset()
	assert.Empty(t, f.Idle())
}
