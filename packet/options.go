package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
)

// optUint16 extracts a required uint16 field from a FromOptions map,
// accepting both uint16 and int (the common case of an untyped integer
// literal in caller-constructed maps).
func optUint16(opts map[string]any, key string) (uint16, error) {
	v, ok := opts[key]
	if !ok {
		return 0, &modbus.InvalidStateError{Field: key, Reason: "required key missing"}
	}
	switch t := v.(type) {
	case uint16:
		return t, nil
	case int:
		if t < 0 || t > 0xFFFF {
			return 0, &modbus.InvalidStateError{Field: key, Reason: "out of uint16 range"}
		}
		return uint16(t), nil
	default:
		return 0, &modbus.InvalidStateError{Field: key, Reason: fmt.Sprintf("unsupported type %T", v)}
	}
}

// optBool extracts a required bool field from a FromOptions map.
func optBool(opts map[string]any, key string) (bool, error) {
	v, ok := opts[key]
	if !ok {
		return false, &modbus.InvalidStateError{Field: key, Reason: "required key missing"}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &modbus.InvalidStateError{Field: key, Reason: fmt.Sprintf("unsupported type %T, want bool", v)}
	}
	return b, nil
}

// optBoolSlice extracts a required []bool field from a FromOptions map.
func optBoolSlice(opts map[string]any, key string) ([]bool, error) {
	v, ok := opts[key]
	if !ok {
		return nil, &modbus.InvalidStateError{Field: key, Reason: "required key missing"}
	}
	b, ok := v.([]bool)
	if !ok {
		return nil, &modbus.InvalidStateError{Field: key, Reason: fmt.Sprintf("unsupported type %T, want []bool", v)}
	}
	return b, nil
}

// optUint16Slice extracts a required []uint16 field from a FromOptions map.
func optUint16Slice(opts map[string]any, key string) ([]uint16, error) {
	v, ok := opts[key]
	if !ok {
		return nil, &modbus.InvalidStateError{Field: key, Reason: "required key missing"}
	}
	u, ok := v.([]uint16)
	if !ok {
		return nil, &modbus.InvalidStateError{Field: key, Reason: fmt.Sprintf("unsupported type %T, want []uint16", v)}
	}
	return u, nil
}
