package emulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localstack/lambda-runtime-client/internal/runtimeapi"
	"github.com/localstack/lambda-runtime-client/internal/worker"
)

func startEmulator(t *testing.T) (*Emulator, *runtimeapi.Client) {
	t.Helper()
	em := New()
	srv := httptest.NewServer(em.Router())
	t.Cleanup(srv.Close)
	return em, runtimeapi.NewClient(strings.TrimPrefix(srv.URL, "http://"))
}

func TestWorkerRoundTrip(t *testing.T) {
	em, client := startEmulator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := worker.New(client, worker.HandlerFunc(func(_ context.Context, payload []byte) ([]byte, error) {
		return append([]byte(`{"echo":`), append(payload, '}')...), nil
	}))
	go func() { _ = w.Run(ctx) }()

	id := em.Enqueue(InvokeRequest{
		Payload:            `"hello"`,
		InvokedFunctionArn: "arn:aws:lambda:us-east-1:000000000000:function:test_function",
		TraceId:            "Root=1-00000000-000000000000000000000000",
	})

	res, err := em.AwaitResult(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, res.Error)
	assert.JSONEq(t, `{"echo":"hello"}`, string(res.Response))
}

func TestWorkerReportsHandlerError(t *testing.T) {
	em, client := startEmulator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := worker.New(client, worker.HandlerFunc(func(context.Context, []byte) ([]byte, error) {
		return nil, errors.New("handler exploded")
	}))
	go func() { _ = w.Run(ctx) }()

	id := em.Enqueue(InvokeRequest{
		Payload:            "{}",
		InvokedFunctionArn: "arn:aws:lambda:us-east-1:000000000000:function:test_function",
		TraceId:            "Root=1-00000000-000000000000000000000000",
	})

	res, err := em.AwaitResult(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, runtimeapi.UnhandledErrorType, res.Error.ErrorType)
	assert.Equal(t, "handler exploded", res.Error.ErrorMessage)
	require.NotNil(t, res.Error.RequestId)
	assert.Equal(t, id, *res.Error.RequestId)
}

func TestInitErrorRecorded(t *testing.T) {
	em, client := startEmulator(t)

	require.NoError(t, client.ReportInitError(context.Background(), errors.New("missing credentials")))

	errs := em.InitErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, runtimeapi.UnhandledErrorType, errs[0].ErrorType)
	assert.Equal(t, "missing credentials", errs[0].ErrorMessage)
}

func TestInvokeEndpointAssignsRequestID(t *testing.T) {
	em := New()
	srv := httptest.NewServer(em.Router())
	t.Cleanup(srv.Close)

	body, err := json.Marshal(InvokeRequest{Payload: "{}"})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/invoke", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out["request-id"])
}
