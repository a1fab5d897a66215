package wire

import "fmt"

const hexDigits = "0123456789ABCDEF"

// EncodeHex renders data as uppercase ASCII hex, two characters per byte,
// the form Modbus ASCII framing puts between ':' and the trailing CR LF.
func EncodeHex(data []byte) []byte {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0f]
	}
	return out
}

// DecodeHex parses ASCII hex (either case) back into bytes. It fails if
// the input has an odd length or contains a non-hex-digit character.
func DecodeHex(data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("wire: odd length hex string (%d chars)", len(data))
	}
	out := make([]byte, len(data)/2)
	for i := range out {
		hi, err := hexNibble(data[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(data[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("wire: invalid hex character %q", c)
	}
}
