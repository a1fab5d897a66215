package packet

import (
	"fmt"

	modbus "github.com/ironloop-io/modbus"
)

// ReadServerIDRequest is the request for Report Server ID (FC=0x11). It
// carries no data; supplemented from the wider Modbus corpus.
type ReadServerIDRequest struct{}

// NewReadServerIDRequest constructs a request.
func NewReadServerIDRequest() (*ReadServerIDRequest, error) {
	return &ReadServerIDRequest{}, nil
}

// ReadServerIDRequestFromOptions constructs from a named field map; there
// are no recognized keys.
func ReadServerIDRequestFromOptions(_ map[string]any) (*ReadServerIDRequest, error) {
	return NewReadServerIDRequest()
}

func (r *ReadServerIDRequest) FunctionCode() uint8 { return FunctionReadServerID }

func (r *ReadServerIDRequest) ToBuffer() []byte {
	return []byte{FunctionReadServerID}
}

func (r *ReadServerIDRequest) ExpectedResponseLength() int { return -1 }

func (r *ReadServerIDRequest) String() string { return "ReadServerIDRequest{}" }

// ReadServerIDRequestFromBuffer decodes a request PDU.
func ReadServerIDRequestFromBuffer(pdu []byte) (*ReadServerIDRequest, error) {
	if err := checkMinLength(requestMinLength, FunctionReadServerID, len(pdu)); err != nil {
		return nil, err
	}
	if pdu[0] != FunctionReadServerID {
		return nil, &modbus.InvalidResponseDataError{Reason: fmt.Sprintf("unexpected function code 0x%02x", pdu[0])}
	}
	return &ReadServerIDRequest{}, nil
}

// ReadServerIDResponse is the response for Report Server ID (FC=0x11).
// ServerID is vendor-defined identifying data; Running reports whether the
// server's run indicator status is active (wire value 0xFF) versus
// stopped (any other value).
type ReadServerIDResponse struct {
	ServerID []byte
	Running  bool
}

// NewReadServerIDResponse constructs a response.
func NewReadServerIDResponse(serverID []byte, running bool) (*ReadServerIDResponse, error) {
	return &ReadServerIDResponse{ServerID: serverID, Running: running}, nil
}

func (r *ReadServerIDResponse) FunctionCode() uint8 { return FunctionReadServerID }

func (r *ReadServerIDResponse) ToBuffer() []byte {
	buf := make([]byte, 3+len(r.ServerID))
	buf[0] = FunctionReadServerID
	buf[1] = byte(1 + len(r.ServerID))
	copy(buf[2:], r.ServerID)
	if r.Running {
		buf[2+len(r.ServerID)] = 0xFF
	}
	return buf
}

func (r *ReadServerIDResponse) String() string {
	return fmt.Sprintf("ReadServerIDResponse{ServerID: % x, Running: %v}", r.ServerID, r.Running)
}

// ReadServerIDResponseFromBuffer decodes a response PDU. Per the same
// liberal-decode convention as coil state, any run indicator value other
// than 0xFF decodes Running as false.
func ReadServerIDResponseFromBuffer(pdu []byte) (*ReadServerIDResponse, error) {
	if err := checkMinLength(responseMinLength, FunctionReadServerID, len(pdu)); err != nil {
		return nil, err
	}
	byteCount := int(pdu[1])
	if byteCount < 1 {
		return nil, &modbus.InvalidResponseDataError{Reason: "byte count must include at least the run indicator status"}
	}
	if len(pdu) != 2+byteCount {
		return nil, &modbus.IncompleteResponseFrameError{Wanted: 2 + byteCount, Got: len(pdu)}
	}
	serverID := pdu[2 : 2+byteCount-1]
	running := pdu[2+byteCount-1] == 0xFF
	return &ReadServerIDResponse{ServerID: serverID, Running: running}, nil
}
