package packet

import modbus "github.com/ironloop-io/modbus"

// validateQuantity checks a read/write quantity against a function's
// bounds and checks that address+quantity-1 does not overflow 0xFFFF.
func validateQuantity(fc uint8, address uint16, quantity int, min, max int) error {
	if quantity < min || quantity > max {
		return &modbus.InvalidQuantityError{FunctionCode: fc, Quantity: quantity, Min: min, Max: max}
	}
	if int(address)+quantity-1 > 0xFFFF {
		return &modbus.InvalidAddressError{Address: uint32(address), Quantity: uint16(quantity)}
	}
	return nil
}
