package runtimeapi

import "encoding/json"

// UnhandledErrorType marks handler failures reported through the invocation
// error endpoint.
const UnhandledErrorType = "Runtime.UnhandledError"

// ErrorPayload is the body shape of the invocation-error and init-error
// endpoints. The two field names are part of the wire contract.
type ErrorPayload struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
}

// Encode serializes the payload to its fixed JSON shape.
func (p ErrorPayload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// DecodeErrorPayload is the inverse of Encode; it exists mainly so wire-level
// tests and the emulator can check the round-trip.
func DecodeErrorPayload(body []byte) (ErrorPayload, error) {
	var p ErrorPayload
	err := json.Unmarshal(body, &p)
	return p, err
}
