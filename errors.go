package modbus

import "fmt"

// ResponseTimeoutError is returned when a transaction's per-request timer
// fires before a matching frame was decoded. Retried up to the
// transaction's retry budget.
type ResponseTimeoutError struct {
	// Elapsed is how long the engine waited before giving up, for diagnostics.
	Elapsed string
}

func (e *ResponseTimeoutError) Error() string {
	return fmt.Sprintf("modbus: response timeout after %s", e.Elapsed)
}

// InvalidChecksumError is raised by a transport framer when a frame's CRC16
// (RTU) or LRC (ASCII) does not match its payload. Retried.
type InvalidChecksumError struct {
	Kind string // "rtu-crc16" or "ascii-lrc"
}

func (e *InvalidChecksumError) Error() string {
	return fmt.Sprintf("modbus: invalid %s checksum", e.Kind)
}

// IncompleteResponseFrameError is raised when a buffer is shorter than the
// minimum length a function code's frame requires, whether that buffer came
// from a framer's idle-gap timeout firing on a partial RTU frame or from a
// short argument handed to a packet's FromBuffer. Retried.
type IncompleteResponseFrameError struct {
	Wanted int
	Got    int
}

func (e *IncompleteResponseFrameError) Error() string {
	return fmt.Sprintf("modbus: incomplete frame, wanted at least %d bytes, got %d", e.Wanted, e.Got)
}

// InvalidResponseDataError is raised when a buffer is long enough but
// internally inconsistent: wrong function code, a byte-count field that
// does not match the payload that follows, a non-zero MBAP protocol id, and
// so on. Retried.
type InvalidResponseDataError struct {
	Reason string
}

func (e *InvalidResponseDataError) Error() string {
	return fmt.Sprintf("modbus: invalid response data: %s", e.Reason)
}

// ConnectionClosedError is delivered to every queued and in-flight
// transaction when the underlying Connection closes or faults. Never
// retried by the transaction it fails, since the transport beneath it is
// gone; a caller must re-open the Master against a new Connection.
type ConnectionClosedError struct {
	Cause error
}

func (e *ConnectionClosedError) Error() string {
	if e.Cause == nil {
		return "modbus: connection closed"
	}
	return fmt.Sprintf("modbus: connection closed: %v", e.Cause)
}

func (e *ConnectionClosedError) Unwrap() error { return e.Cause }

// InvalidAddressError is a construction-time validation failure: the
// address fell outside 0x0000..0xFFFF or address+quantity-1 overflowed
// 0xFFFF. Signalled synchronously; never enters the transaction queue.
type InvalidAddressError struct {
	Address  uint32
	Quantity uint16
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("modbus: invalid address range: address=%d quantity=%d", e.Address, e.Quantity)
}

// InvalidQuantityError is a construction-time validation failure: the
// quantity fell outside the function's allowed bounds.
type InvalidQuantityError struct {
	FunctionCode uint8
	Quantity     int
	Min          int
	Max          int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("modbus: quantity %d out of range for function 0x%02x (valid %d..%d)",
		e.Quantity, e.FunctionCode, e.Min, e.Max)
}

// InvalidStateError is a construction-time validation failure for
// malformed field values, such as a single coil write with a state value
// that is neither true nor false coming from a FromOptions map of the
// wrong dynamic type.
type InvalidStateError struct {
	Field  string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("modbus: invalid value for %s: %s", e.Field, e.Reason)
}

// Retryable reports whether the transaction engine should re-queue a
// transaction after this error, per the taxonomy in the engine's retry
// policy: checksum, framing, decode and timeout errors are transient and
// retried; exception responses and connection closure are not.
func Retryable(err error) bool {
	switch err.(type) {
	case *InvalidChecksumError, *IncompleteResponseFrameError, *InvalidResponseDataError, *ResponseTimeoutError:
		return true
	default:
		return false
	}
}
