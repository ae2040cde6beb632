// Package emulator is a local stand-in for the Runtime API service, used for
// development and end-to-end tests of the client. It queues invocations
// submitted on /invoke and serves them to a worker over the real wire
// protocol.
package emulator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/localstack/lambda-runtime-client/internal/runtimeapi"
)

// InvokeRequest triggers one invocation through the emulator.
type InvokeRequest struct {
	InvokeId           string `json:"request-id"`
	InvokedFunctionArn string `json:"invoked-function-arn"`
	Payload            string `json:"payload"`
	TraceId            string `json:"trace-id"`
	ClientContext      string `json:"client-context"`
}

// ErrorResponse is what the emulator hands back to the invoking caller when
// the worker reported a failure.
type ErrorResponse struct {
	ErrorMessage string  `json:"errorMessage"`
	ErrorType    string  `json:"errorType,omitempty"`
	RequestId    *string `json:"requestId,omitempty"`
}

// InvokeResult is the recorded outcome of one invocation. Exactly one of
// Response and Error is set.
type InvokeResult struct {
	RequestId string
	Response  []byte
	Error     *ErrorResponse
}

type Emulator struct {
	// FunctionTimeout is used to stamp the deadline header.
	FunctionTimeout time.Duration

	pending chan *pendingInvoke

	mu       sync.Mutex
	results  map[string]chan InvokeResult
	initErrs []runtimeapi.ErrorPayload
}

type pendingInvoke struct {
	req      InvokeRequest
	deadline time.Time
}

func New() *Emulator {
	return &Emulator{
		FunctionTimeout: 30 * time.Second,
		pending:         make(chan *pendingInvoke, 64),
		results:         make(map[string]chan InvokeResult),
	}
}

// Enqueue registers req for pickup by the worker and returns its request id,
// generating one when the caller did not supply it.
func (e *Emulator) Enqueue(req InvokeRequest) string {
	if req.InvokeId == "" {
		req.InvokeId = uuid.New().String()
	}

	e.mu.Lock()
	e.results[req.InvokeId] = make(chan InvokeResult, 1)
	e.mu.Unlock()

	e.pending <- &pendingInvoke{
		req:      req,
		deadline: time.Now().Add(e.FunctionTimeout),
	}
	return req.InvokeId
}

// AwaitResult blocks until the worker reported an outcome for the request id.
func (e *Emulator) AwaitResult(ctx context.Context, requestId string) (InvokeResult, error) {
	e.mu.Lock()
	ch, ok := e.results[requestId]
	e.mu.Unlock()
	if !ok {
		return InvokeResult{}, context.Canceled
	}

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return InvokeResult{}, ctx.Err()
	}
}

// InitErrors returns the init-error payloads reported so far.
func (e *Emulator) InitErrors() []runtimeapi.ErrorPayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]runtimeapi.ErrorPayload(nil), e.initErrs...)
}

// Router serves both the trigger endpoint and the Runtime API surface.
func (e *Emulator) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/invoke", e.handleInvoke)

	r.Route("/"+runtimeapi.APIVersion+"/runtime", func(r chi.Router) {
		r.Get("/invocation/next", e.handleNext)
		r.Post("/invocation/{requestId}/response", e.handleResponse)
		r.Post("/invocation/{requestId}/error", e.handleError)
		r.Post("/init/error", e.handleInitError)
	})

	return r
}

func (e *Emulator) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Error("Failed to decode invoke request.")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id := e.Enqueue(req)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"request-id": id})
}

func (e *Emulator) handleNext(w http.ResponseWriter, r *http.Request) {
	select {
	case inv := <-e.pending:
		h := w.Header()
		h.Set(runtimeapi.HeaderRequestID, inv.req.InvokeId)
		h.Set(runtimeapi.HeaderDeadlineMs, strconv.FormatInt(inv.deadline.UnixMilli(), 10))
		h.Set(runtimeapi.HeaderInvokedFunctionArn, inv.req.InvokedFunctionArn)
		h.Set(runtimeapi.HeaderTraceID, inv.req.TraceId)
		if inv.req.ClientContext != "" {
			h.Set(runtimeapi.HeaderClientContext, inv.req.ClientContext)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(inv.req.Payload))
	case <-r.Context().Done():
		// Worker went away while long-polling.
	}
}

func (e *Emulator) handleResponse(w http.ResponseWriter, r *http.Request) {
	requestId := chi.URLParam(r, "requestId")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	e.deliver(InvokeResult{RequestId: requestId, Response: body})
	w.WriteHeader(http.StatusAccepted)
}

func (e *Emulator) handleError(w http.ResponseWriter, r *http.Request) {
	requestId := chi.URLParam(r, "requestId")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	payload, err := runtimeapi.DecodeErrorPayload(body)
	if err != nil {
		log.WithError(err).WithField("request-id", requestId).Error("Malformed error payload.")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	e.deliver(InvokeResult{
		RequestId: requestId,
		Error: &ErrorResponse{
			ErrorMessage: payload.ErrorMessage,
			ErrorType:    payload.ErrorType,
			RequestId:    aws.String(requestId),
		},
	})
	w.WriteHeader(http.StatusAccepted)
}

func (e *Emulator) handleInitError(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	payload, err := runtimeapi.DecodeErrorPayload(body)
	if err != nil {
		log.WithError(err).Error("Malformed init error payload.")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	log.WithField("error-type", payload.ErrorType).Error("Worker reported init failure: " + payload.ErrorMessage)

	e.mu.Lock()
	e.initErrs = append(e.initErrs, payload)
	e.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (e *Emulator) deliver(res InvokeResult) {
	e.mu.Lock()
	ch, ok := e.results[res.RequestId]
	delete(e.results, res.RequestId)
	e.mu.Unlock()

	if !ok {
		log.WithField("request-id", res.RequestId).Warn("Report for unknown invocation.")
		return
	}
	ch <- res
}
