// Package modbus is a Modbus protocol engine for speaking Modbus to
// industrial devices as a client (master), over serial lines (RTU and
// ASCII framing) and over TCP (MBAP framing).
//
// The package is split by concern:
//
//   - wire/ holds framing-independent numeric codecs (CRC-16, LRC, bit
//     packing, ASCII hex).
//   - packet/ holds the per-function-code request/response objects and
//     the unified exception decode.
//   - transport/ holds the three frame reassembly variants.
//   - conn/ holds the abstract byte-stream Connection and two concrete
//     adapters (serial, TCP).
//   - master/ holds the transaction queue, retry policy and the public
//     Master client that ties the above together.
//
// Concrete serial/TCP drivers beyond the two reference adapters, the
// server (slave) role, and a CLI are not part of this package.
package modbus
