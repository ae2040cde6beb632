package runtimeapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Transport issues a single HTTP exchange. *http.Client satisfies it; tests
// substitute their own. Connection management, TLS and timeouts live behind
// this boundary and are not this package's concern.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewTransport returns the default transport. The client timeout is left at
// zero: /invocation/next long-polls and must be allowed to block until the
// service hands out work.
func NewTransport() Transport {
	return &http.Client{
		Transport: &http.Transport{
			// One worker talks to one control endpoint; a second connection
			// would only ever idle.
			MaxIdleConns:    1,
			IdleConnTimeout: 30 * time.Second,
		},
	}
}

// translateTransportError remaps the transport's native timeout and
// connection-reset failures onto stable protocol-level reasons. Everything
// else passes through unchanged so the caller keeps the original diagnostic.
func translateTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Reason: ReasonTimeout}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &UpstreamError{Reason: ReasonTimeout}
	}

	if errors.Is(err, syscall.ECONNRESET) {
		return &UpstreamError{Reason: ReasonConnectionResetByPeer}
	}

	return err
}
