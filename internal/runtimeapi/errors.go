package runtimeapi

import (
	"errors"
	"fmt"
)

// ErrNoBody indicates the next-invocation response arrived without an event
// payload. The Runtime API always ships the event in the body, so an empty
// body means the exchange is unusable.
var ErrNoBody = errors.New("next invocation response carried no body")

// Upstream error reasons. Any transport failure that is neither of these is
// passed through to the caller unchanged.
const (
	ReasonTimeout               = "timeout"
	ReasonConnectionResetByPeer = "connectionResetByPeer"
)

// BadStatusCodeError is returned when the control endpoint answered with a
// status other than the one the operation expects (200 for next, 202 for the
// report endpoints).
type BadStatusCodeError struct {
	Status int
}

func (e *BadStatusCodeError) Error() string {
	return fmt.Sprintf("unexpected status code from runtime API: %d", e.Status)
}

// UpstreamError wraps a transport-level timeout or connection reset under a
// stable reason string, so callers can log and branch without depending on
// the transport's native error types.
type UpstreamError struct {
	Reason string
}

func (e *UpstreamError) Error() string {
	return "upstream error: " + e.Reason
}

// MissingHeaderError names the first required next-invocation header that was
// absent, empty (request id) or unparseable (deadline).
type MissingHeaderError struct {
	Header string
}

func (e *MissingHeaderError) Error() string {
	return "next invocation response is missing required header " + e.Header
}

// JSONEncodingError reports that an error payload could not be serialized.
// When it is returned, no request was sent.
type JSONEncodingError struct {
	Err error
}

func (e *JSONEncodingError) Error() string {
	return "failed to encode error payload: " + e.Err.Error()
}

func (e *JSONEncodingError) Unwrap() error {
	return e.Err
}
