// Package worker drives the poll-execute-report loop on top of the Runtime
// API client: claim one invocation, run the handler under the invocation's
// deadline, report the outcome, repeat. One invocation is in flight at a
// time; the protocol has no pipelining.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	log "github.com/sirupsen/logrus"

	"github.com/localstack/lambda-runtime-client/internal/runtimeapi"
)

// Handler executes one invocation payload and returns the response payload.
type Handler interface {
	Invoke(ctx context.Context, payload []byte) ([]byte, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, payload []byte) ([]byte, error)

func (f HandlerFunc) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

// RuntimeAPI is the slice of the client the worker needs.
type RuntimeAPI interface {
	Next(ctx context.Context) (*runtimeapi.Invocation, []byte, error)
	ReportResult(ctx context.Context, inv *runtimeapi.Invocation, response []byte, handlerErr error) error
}

type Worker struct {
	api     RuntimeAPI
	handler Handler
}

func New(api RuntimeAPI, handler Handler) *Worker {
	return &Worker{
		api:     api,
		handler: handler,
	}
}

// Run polls for work until ctx is cancelled or a protocol operation fails.
// Handler failures are not loop failures: they are reported upstream and the
// loop continues. A failing control endpoint is returned to the caller, which
// decides whether to terminate.
func (w *Worker) Run(ctx context.Context) error {
	for {
		inv, payload, err := w.api.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		response, handlerErr := w.invoke(ctx, inv, payload)
		if handlerErr != nil {
			log.WithError(handlerErr).WithField("request-id", inv.RequestID).Error("Handler failed.")
		}

		if err := w.api.ReportResult(ctx, inv, response, handlerErr); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// invoke runs the handler under a context carrying the invocation deadline
// and metadata.
func (w *Worker) invoke(ctx context.Context, inv *runtimeapi.Invocation, payload []byte) ([]byte, error) {
	invokeCtx, cancel := context.WithDeadline(ctx, time.UnixMilli(inv.DeadlineMs))
	defer cancel()

	lc := &lambdacontext.LambdaContext{
		AwsRequestID:       inv.RequestID,
		InvokedFunctionArn: inv.InvokedFunctionArn,
	}
	// The optional metadata headers carry JSON; unreadable values are dropped
	// rather than failing the invocation.
	if inv.ClientContext != "" {
		if err := json.Unmarshal([]byte(inv.ClientContext), &lc.ClientContext); err != nil {
			log.WithError(err).WithField("request-id", inv.RequestID).Warn("Discarding unparseable client context.")
		}
	}
	if inv.CognitoIdentity != "" {
		if err := json.Unmarshal([]byte(inv.CognitoIdentity), &lc.Identity); err != nil {
			log.WithError(err).WithField("request-id", inv.RequestID).Warn("Discarding unparseable cognito identity.")
		}
	}

	return w.handler.Invoke(lambdacontext.NewContext(invokeCtx, lc), payload)
}
