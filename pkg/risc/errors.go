package risc

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized    = errors.New("risc: client has not been initialized")
	ErrInvalidInput      = errors.New("risc: invalid input")
	ErrTransport         = errors.New("risc: transport error")
	ErrTimeout           = errors.New("risc: request timed out")
	ErrMalformedResponse = errors.New("risc: malformed response")
)

// APIError is returned when the server answers outside the success range.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// failure carries a caller-facing message while matching one of the
// sentinel errors above through errors.Is.
type failure struct {
	kind  error
	msg   string
	cause error
}

func (f *failure) Error() string        { return f.msg }
func (f *failure) Is(target error) bool { return target == f.kind }
func (f *failure) Unwrap() error        { return f.cause }

func invalidInput(msg string) error {
	return &failure{kind: ErrInvalidInput, msg: msg}
}

func notInitialized(reason string) error {
	return &failure{kind: ErrNotInitialized, msg: "risc: client has not been initialized: " + reason}
}
