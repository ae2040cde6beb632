package runtimeapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
)

// APIVersion is the Runtime API version prefix all paths are served under.
const APIVersion = "2018-06-01"

const contentTypeJSON = "application/json"

// Client speaks the Runtime API: it claims invocations from the control
// endpoint and reports their outcomes back. It owns its transport and buffer
// pool exclusively and supports exactly one outstanding operation at a time;
// callers that share an instance across goroutines must serialize access
// themselves. No operation is ever retried internally.
type Client struct {
	endpoint  string
	transport Transport
	buffers   sync.Pool

	// Swappable so the encode-failure path is testable.
	encodePayload func(ErrorPayload) ([]byte, error)
}

// NewClient builds a client for the control endpoint given as "host:port"
// (the AWS_LAMBDA_RUNTIME_API convention), using the default transport.
func NewClient(hostport string) *Client {
	return NewClientWithTransport(hostport, NewTransport())
}

func NewClientWithTransport(hostport string, transport Transport) *Client {
	c := &Client{
		endpoint:      "http://" + hostport + "/" + APIVersion + "/runtime",
		transport:     transport,
		encodePayload: ErrorPayload.Encode,
	}
	c.buffers.New = func() any {
		return new(bytes.Buffer)
	}
	return c
}

// Next claims the next invocation. It blocks until the control endpoint hands
// out work, then validates the response: status 200, the four required
// headers, and a non-empty event body. On success it returns the parsed
// invocation and the raw event payload.
func (c *Client) Next(ctx context.Context) (*Invocation, []byte, error) {
	url := c.endpoint + "/invocation/next"
	log.WithField("url", url).Debug("Requesting next invocation.")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, nil, translateTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &BadStatusCodeError{Status: resp.StatusCode}
	}

	inv, err := ParseInvocation(resp.Header)
	if err != nil {
		// Known gap: the service considers this invocation claimed, but with
		// an unusable request id there is nothing to address a report to, so
		// the claimed work is dropped unacknowledged.
		return nil, nil, err
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, translateTransportError(err)
	}
	if len(payload) == 0 {
		return nil, nil, ErrNoBody
	}

	return inv, payload, nil
}

// ReportResult reports the outcome of inv. A nil handlerErr posts response to
// the invocation response endpoint verbatim (it may be empty); a non-nil
// handlerErr posts an unhandled-error payload to the invocation error
// endpoint instead, and response is ignored.
func (c *Client) ReportResult(ctx context.Context, inv *Invocation, response []byte, handlerErr error) error {
	if handlerErr != nil {
		return c.postError(ctx, c.endpoint+"/invocation/"+inv.RequestID+"/error", handlerErr)
	}
	return c.post(ctx, c.endpoint+"/invocation/"+inv.RequestID+"/response", nil, response)
}

// ReportInitError reports a process-initialization failure. No invocation has
// been claimed at that point, so the report goes to the fixed init-error
// endpoint. Meant to be called at most once, before the first Next.
func (c *Client) ReportInitError(ctx context.Context, initErr error) error {
	return c.postError(ctx, c.endpoint+"/init/error", initErr)
}

// postError encodes cause as an ErrorPayload and posts it. An encoding
// failure aborts before any network I/O rather than shipping a malformed
// body.
func (c *Client) postError(ctx context.Context, url string, cause error) error {
	body, err := c.encodePayload(ErrorPayload{
		ErrorType:    UnhandledErrorType,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		return &JSONEncodingError{Err: err}
	}
	header := map[string]string{
		"Content-Type":          contentTypeJSON,
		HeaderFunctionErrorType: UnhandledErrorType,
	}
	return c.post(ctx, url, header, body)
}

// post issues one POST and requires the accepted status in return.
func (c *Client) post(ctx context.Context, url string, header map[string]string, body []byte) error {
	log.WithField("url", url).Debug("Sending report.")

	buf := c.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	buf.Write(body)
	defer c.buffers.Put(buf)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		return translateTransportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return &BadStatusCodeError{Status: resp.StatusCode}
	}
	return nil
}
