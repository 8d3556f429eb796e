package restrepo

import (
	"encoding/json"
	"net/http"
)

// Shape is the result type a caller declares for a request.
type Shape int

const (
	ShapeVoid Shape = iota
	ShapeString
	ShapeNumber
	ShapeBool
	ShapeObject
	ShapeArray
)

var shapeNames = [...]string{"void", "string", "number", "bool", "object", "array"}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "unknown"
	}
	return shapeNames[s]
}

// Request describes a single REST call.
type Request struct {
	Method string
	URL    string
	// Body is encoded as JSON when non-nil.
	Body  interface{}
	Shape Shape
}

// Result is the coerced payload of a successful request. A Result handed to
// deduplicated callers is shared; treat it as read-only.
type Result struct {
	Shape Shape
	// Status is the HTTP status code of the response.
	Status int
	// Raw is the response body exactly as received.
	Raw    string
	Text   string
	Number float64
	Bool   bool
	Object json.RawMessage
	Items  []json.RawMessage
}

// Middleware represents a middleware function
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Option represents a configuration option
type Option func(*Client)

// DebugConfig gates debug logging.
type DebugConfig struct {
	Enabled          bool
	LogRequests      bool
	LogDeduplication bool
	RequestIDGen     func() string
}
