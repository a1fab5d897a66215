// Package wire holds the framing-independent numeric codecs that every
// Modbus packet and transport framer builds on: big-endian register
// values, bit-packed coil values, and the two checksum algorithms used by
// the serial framings.
package wire

import "encoding/binary"

// PutUint16 writes v into dst[0:2] big-endian, the wire order Modbus uses
// for every multi-byte field except the RTU CRC suffix.
func PutUint16(dst []byte, v uint16) {
	binary.BigEndian.PutUint16(dst, v)
}

// Uint16 reads a big-endian uint16 from the first two bytes of src.
func Uint16(src []byte) uint16 {
	return binary.BigEndian.Uint16(src)
}
