package restrepo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// BackendErrorParser turns a structured JSON error payload into the message
// of a Backend error. Implementations are per backend dialect.
type BackendErrorParser interface {
	ParseBackendError(status int, statusText string, body string) string
}

// DefaultBackendErrorParser ignores the payload and reports the status line.
type DefaultBackendErrorParser struct{}

// ParseBackendError returns "<status> - <statusText>".
func (DefaultBackendErrorParser) ParseBackendError(status int, statusText string, _ string) string {
	return statusLine(status, statusText)
}

// FieldBackendErrorParser reads the first non-empty string field of the
// payload among Fields, falling back to the status line.
type FieldBackendErrorParser struct {
	Fields []string
}

// DefaultMessageFields are the payload fields FieldBackendErrorParser looks at
// when Fields is empty.
var DefaultMessageFields = []string{"message", "msg", "error", "detail"}

// ParseBackendError implements BackendErrorParser.
func (p FieldBackendErrorParser) ParseBackendError(status int, statusText string, body string) string {
	fields := p.Fields
	if len(fields) == 0 {
		fields = DefaultMessageFields
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		for _, field := range fields {
			if s, ok := payload[field].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return statusLine(status, statusText)
}

// Messages holds the user-facing fallback strings of the classifier.
type Messages struct {
	NoErrorSpecified string
}

// DefaultMessages returns the English fallback strings.
func DefaultMessages() Messages {
	return Messages{NoErrorSpecified: "No error specified"}
}

var descriptionPattern = regexp.MustCompile(`<b>description</b> <u>(.*?)</u>`)

// Classifier converts a non-2xx response into a ClientError.
type Classifier struct {
	Parser   BackendErrorParser
	Messages Messages
}

// NewClassifier returns a Classifier using parser, or the status-line parser when nil.
func NewClassifier(parser BackendErrorParser) *Classifier {
	if parser == nil {
		parser = DefaultBackendErrorParser{}
	}
	return &Classifier{Parser: parser, Messages: DefaultMessages()}
}

// Classify never returns nil. The first matching rule wins: 401, HTML/XML body,
// JSON body, anything else.
func (c *Classifier) Classify(status int, statusText string, body string) error {
	var err *ClientError

	switch {
	case status == http.StatusUnauthorized:
		err = newNetworkError(msgAuthorization, status, body)
		err.Cause = ErrUnauthorized
	case strings.HasPrefix(body, "<"):
		err = newNetworkError(c.describeMarkup(status, statusText, body), status, body)
	case strings.HasPrefix(body, "{"):
		parser := c.Parser
		if parser == nil {
			parser = DefaultBackendErrorParser{}
		}
		err = newBackendError(parser.ParseBackendError(status, statusText, body), status, body)
	default:
		err = newNetworkError(statusLine(status, statusText), status, body)
	}

	return err
}

func (c *Classifier) describeMarkup(status int, statusText string, body string) string {
	description := statusText
	if m := descriptionPattern.FindStringSubmatch(body); m != nil {
		description = m[1]
	}
	if strings.TrimSpace(description) == "" {
		description = c.Messages.NoErrorSpecified
		if description == "" {
			description = DefaultMessages().NoErrorSpecified
		}
	}
	return fmt.Sprintf("%d - %s", status, description)
}

func statusLine(status int, statusText string) string {
	return fmt.Sprintf("%d - %s", status, statusText)
}

// statusTextOf returns the reason phrase of resp.Status ("404 Not Found" -> "Not Found").
func statusTextOf(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
