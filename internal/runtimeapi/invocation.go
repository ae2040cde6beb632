package runtimeapi

import (
	"net/http"
	"strconv"
)

// Header names are fixed by the Runtime API.
const (
	HeaderRequestID          = "Lambda-Runtime-Aws-Request-Id"
	HeaderDeadlineMs         = "Lambda-Runtime-Deadline-Ms"
	HeaderInvokedFunctionArn = "Lambda-Runtime-Invoked-Function-Arn"
	HeaderTraceID            = "Lambda-Runtime-Trace-Id"
	HeaderClientContext      = "Lambda-Runtime-Client-Context"
	HeaderCognitoIdentity    = "Lambda-Runtime-Cognito-Identity"
	HeaderFunctionErrorType  = "Lambda-Runtime-Function-Error-Type"
)

// Invocation is one unit of work claimed from the Runtime API. It is a plain
// value: immutable after construction and consumed by exactly one matching
// report call addressed to its RequestID.
type Invocation struct {
	RequestID          string
	DeadlineMs         int64
	InvokedFunctionArn string
	TraceID            string
	ClientContext      string
	CognitoIdentity    string
}

// ParseInvocation builds an Invocation from the headers of a next-invocation
// response. Required headers are checked in a fixed order (request id,
// deadline, function ARN, trace id) so the reported failure is deterministic.
// A deadline that does not parse as a base-10 integer is treated the same as
// a missing one. The optional client-context and cognito-identity headers are
// read permissively.
func ParseInvocation(headers http.Header) (*Invocation, error) {
	requestID := headers.Get(HeaderRequestID)
	if requestID == "" {
		return nil, &MissingHeaderError{Header: HeaderRequestID}
	}

	deadlineMs, err := strconv.ParseInt(headers.Get(HeaderDeadlineMs), 10, 64)
	if err != nil {
		return nil, &MissingHeaderError{Header: HeaderDeadlineMs}
	}

	// Presence is what matters for the ARN and trace id; only the request id
	// must additionally be non-empty.
	arn := headers.Values(HeaderInvokedFunctionArn)
	if len(arn) == 0 {
		return nil, &MissingHeaderError{Header: HeaderInvokedFunctionArn}
	}

	traceID := headers.Values(HeaderTraceID)
	if len(traceID) == 0 {
		return nil, &MissingHeaderError{Header: HeaderTraceID}
	}

	return &Invocation{
		RequestID:          requestID,
		DeadlineMs:         deadlineMs,
		InvokedFunctionArn: arn[0],
		TraceID:            traceID[0],
		ClientContext:      headers.Get(HeaderClientContext),
		CognitoIdentity:    headers.Get(HeaderCognitoIdentity),
	}, nil
}
