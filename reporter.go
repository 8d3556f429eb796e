package restrepo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Environment describes the process a report was produced in.
type Environment struct {
	Library   string `json:"library"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	NumCPU    int    `json:"numCPU"`
	Hostname  string `json:"hostname,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// CurrentEnvironment captures the running process.
func CurrentEnvironment(userAgent string) Environment {
	hostname, _ := os.Hostname()
	return Environment{
		Library:   "restrepo",
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		Hostname:  hostname,
		UserAgent: userAgent,
	}
}

// ErrorRecord is the serialized form of an error, every field spelled out.
type ErrorRecord struct {
	Type      string    `json:"type"`
	Kind      Kind      `json:"kind,omitempty"`
	Message   string    `json:"message"`
	Status    int       `json:"status,omitempty"`
	Method    string    `json:"method,omitempty"`
	URL       string    `json:"url,omitempty"`
	Cause     string    `json:"cause,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewErrorRecord serializes err.
func NewErrorRecord(err error) ErrorRecord {
	rec := ErrorRecord{Type: fmt.Sprintf("%T", err)}
	if err == nil {
		return rec
	}

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		rec.Message = err.Error()
		return rec
	}

	rec.Kind = clientErr.Kind
	rec.Message = clientErr.Message
	rec.Status = clientErr.Status
	rec.Method = clientErr.Method
	rec.URL = clientErr.URL
	rec.Timestamp = clientErr.Timestamp
	if clientErr.Cause != nil {
		rec.Cause = clientErr.Cause.Error()
	}
	return rec
}

// Report is one logged error event.
type Report struct {
	ID          string      `json:"id"`
	Message     string      `json:"message"`
	Error       ErrorRecord `json:"error"`
	Body        string      `json:"body,omitempty"`
	Environment Environment `json:"environment"`
	Time        time.Time   `json:"time"`
}

// Sink receives reports. Send must not block the caller for long and never
// reports failure back.
type Sink interface {
	Send(report Report)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(report Report)

func (f SinkFunc) Send(report Report) {
	f(report)
}

// LogSink writes reports to a Logger at error level.
type LogSink struct {
	Logger Logger
}

func (s LogSink) Send(report Report) {
	if s.Logger == nil {
		return
	}
	s.Logger.Error(report.Message,
		"reportID", report.ID,
		"kind", string(report.Error.Kind),
		"error", report.Error.Message,
		"status", report.Error.Status,
		"url", report.Error.URL,
		"body", report.Body,
		"os", report.Environment.OS,
		"arch", report.Environment.Arch,
		"version", report.Environment.Version,
		"commit", report.Environment.Commit,
	)
}

// HTTPSink POSTs every report as JSON to Endpoint in the background.
type HTTPSink struct {
	Endpoint string
	Client   *http.Client
	// Logger, when set, is told about deliveries that failed.
	Logger Logger
}

func (s *HTTPSink) Send(report Report) {
	data, err := json.Marshal(report)
	if err != nil {
		s.warn("Encoding error report failed", "reportID", report.ID, "error", err.Error())
		return
	}
	go s.deliver(report.ID, data)
}

func (s *HTTPSink) deliver(id string, data []byte) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Post(s.Endpoint, "application/json", bytes.NewReader(data))
	if err != nil {
		s.warn("Delivering error report failed", "reportID", id, "error", err.Error())
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.warn("Error report rejected", "reportID", id, "statusCode", resp.StatusCode)
	}
}

func (s *HTTPSink) warn(msg string, keysAndValues ...interface{}) {
	if s.Logger != nil {
		s.Logger.Warn(msg, keysAndValues...)
	}
}

// ErrorHandler is the last stop for errors the application did not handle:
// a 401 NetworkError is turned into a redirect to LoginURL when both LoginURL
// and Redirect are set, everything else becomes one Report.
type ErrorHandler struct {
	Sink      Sink
	LoginURL  string
	Redirect  func(loginURL string)
	UserAgent string
}

// Handle processes err. It reports true when it redirected instead of reporting.
func (h *ErrorHandler) Handle(message string, err error) bool {
	if err == nil {
		return false
	}

	if IsUnauthorized(err) && h.LoginURL != "" && h.Redirect != nil {
		h.Redirect(h.LoginURL)
		return true
	}

	if h.Sink == nil {
		return false
	}

	report := Report{
		ID:          uuid.NewString(),
		Message:     message,
		Error:       NewErrorRecord(err),
		Environment: CurrentEnvironment(h.UserAgent),
		Time:        time.Now(),
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		report.Body = clientErr.Body
	}
	h.Sink.Send(report)
	return false
}
