package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRC(t *testing.T) {
	var testCases = []struct {
		name   string
		when   []byte
		expect byte
	}{
		{
			name:   "ok, read holding registers request 0x01 0x03 0x00 0x00 0x00 0x01",
			when:   []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01},
			expect: 0xFB,
		},
		{
			name:   "ok, all zero",
			when:   []byte{0x00, 0x00, 0x00},
			expect: 0x00,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := LRC(tc.when)
			assert.Equal(t, tc.expect, got)

			// LRC is defined so that summing the frame plus its own LRC byte wraps to 0.
			sum := byte(0)
			for _, b := range tc.when {
				sum += b
			}
			sum += got
			assert.Equal(t, byte(0), sum)
		})
	}
}
