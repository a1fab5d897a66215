package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16(t *testing.T) {
	var testCases = []struct {
		name   string
		when   []byte
		expect uint16
	}{
		{
			name:   "ok",
			when:   []byte{0x01, 0x04, 0x02, 0xFF, 0xFF},
			expect: 0x80B8,
		},
		{
			name:   "ok, read holding registers request",
			when:   []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03},
			expect: 0x8776,
		},
		{
			name:   "ok, read holding registers response",
			when:   []byte{0x03, 0x03, 0x02, 0xCD, 0x6B},
			expect: 0xFBD4,
		},
		{
			name:   "ok, empty",
			when:   []byte{},
			expect: 0xFFFF,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, CRC16(tc.when))
		})
	}
}
