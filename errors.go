package restrepo

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a ClientError.
type Kind string

const (
	// KindTransport: the request never produced an HTTP response (DNS,
	// refused connection, timeout, broken body stream).
	KindTransport Kind = "Transport"
	// KindNetwork: an HTTP-level failure, including 401 and payloads that do
	// not match the declared shape.
	KindNetwork Kind = "Network"
	// KindBackend: the server returned a structured JSON error payload.
	KindBackend Kind = "Backend"
)

// Sentinel errors for common failure scenarios
var (
	// ErrUnauthorized is the cause of every 401 NetworkError.
	ErrUnauthorized = errors.New("restrepo: unauthorized")

	// ErrTypeMismatch is the cause of a NetworkError raised when the payload
	// does not match the declared Shape.
	ErrTypeMismatch = errors.New("restrepo: wrong returned type")

	// ErrUnsupportedMethod is returned for methods other than HEAD, GET, POST, PUT and DELETE.
	ErrUnsupportedMethod = errors.New("restrepo: unsupported method")
)

const (
	msgAuthorization = "Authorization exception"
	msgWrongType     = "Wrong returned type"
)

// ClientError is the normalized error returned by every failed request.
type ClientError struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code, zero for transport failures.
	Status int
	// Body is the raw response body, empty for transport failures.
	Body      string
	Method    string
	URL       string
	Cause     error
	Timestamp time.Time
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Cause != nil && e.Cause != ErrUnauthorized && e.Cause != ErrTypeMismatch {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.Method != "" {
		msg = fmt.Sprintf("%s [%s %s]", msg, e.Method, e.URL)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error kinds for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Kind == targetErr.Kind
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Kind: %s\n", e.Kind)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.Status > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.Status)
	}
	if e.Body != "" {
		info += fmt.Sprintf("Body: %s\n", e.Body)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

func kindOf(err error) (Kind, bool) {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Kind, true
	}
	return "", false
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindTransport
}

// IsNetwork reports whether err is an HTTP-level NetworkError.
func IsNetwork(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindNetwork
}

// IsBackend reports whether err carries a structured backend error payload.
func IsBackend(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindBackend
}

// IsUnauthorized reports whether err is the 401 NetworkError.
func IsUnauthorized(err error) bool {
	return IsNetwork(err) && errors.Is(err, ErrUnauthorized)
}

// IsTypeMismatch reports whether err was raised because the payload did not
// match the declared Shape.
func IsTypeMismatch(err error) bool {
	return IsNetwork(err) && errors.Is(err, ErrTypeMismatch)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Status
	}
	return 0
}

func newNetworkError(message string, status int, body string) *ClientError {
	return &ClientError{Kind: KindNetwork, Message: message, Status: status, Body: body, Timestamp: time.Now()}
}

func newBackendError(message string, status int, body string) *ClientError {
	return &ClientError{Kind: KindBackend, Message: message, Status: status, Body: body, Timestamp: time.Now()}
}

func newTypeMismatchError(body string, cause error) *ClientError {
	e := newNetworkError(msgWrongType, 0, body)
	e.Cause = ErrTypeMismatch
	if cause != nil {
		e.Cause = fmt.Errorf("%w: %v", ErrTypeMismatch, cause)
	}
	return e
}
