package restrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/ambiyansyah-risyal/restrepo/internal/inflight"
)

// Client issues JSON REST requests, coalesces identical concurrent reads and
// normalizes failures into *ClientError. It is safe for concurrent use; each
// Client owns its own table of in-flight requests.
type Client struct {
	httpClient      *http.Client
	timeout         time.Duration
	headers         http.Header
	middleware      []Middleware
	classifier      *Classifier
	pending         *inflight.Table[Result]
	dedupKeyFunc    DeduplicationKeyFunc
	dedupCondition  DeduplicationCondition
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	diagnostics     Logger
	validationError error
}

// DefaultDebugConfig returns a disabled debug configuration with every log
// category selected and UUID request IDs.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:          false,
		LogRequests:      true,
		LogDeduplication: true,
		RequestIDGen:     uuid.NewString,
	}
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		timeout:        30 * time.Second,
		headers:        http.Header{},
		middleware:     []Middleware{},
		classifier:     NewClassifier(nil),
		dedupKeyFunc:   DefaultDeduplicationKeyFunc,
		dedupCondition: DefaultDeduplicationCondition,
		debug:          DefaultDebugConfig(),
		diagnostics:    &LevelLogger{},
	}
	client.pending = newPendingTable(client)

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Head performs an HTTP HEAD and discards any payload.
func (c *Client) Head(ctx context.Context, url string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodHead, URL: url, Shape: ShapeVoid})
	return err
}

// Get performs an HTTP GET, coercing the payload to shape.
func (c *Client) Get(ctx context.Context, url string, shape Shape) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url, Shape: shape})
}

// Post performs an HTTP POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, url string, body interface{}, shape Shape) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Body: body, Shape: shape})
}

// Put performs an HTTP PUT with body encoded as JSON.
func (c *Client) Put(ctx context.Context, url string, body interface{}, shape Shape) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, URL: url, Body: body, Shape: shape})
}

// Delete performs an HTTP DELETE.
func (c *Client) Delete(ctx context.Context, url string, shape Shape) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, URL: url, Shape: shape})
}

// GetString performs a GET and returns the body verbatim.
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	res, err := c.Get(ctx, url, ShapeString)
	return res.Text, err
}

// GetNumber performs a GET and parses the body as a number.
func (c *Client) GetNumber(ctx context.Context, url string) (float64, error) {
	res, err := c.Get(ctx, url, ShapeNumber)
	return res.Number, err
}

// GetBool performs a GET and parses the body as a boolean.
func (c *Client) GetBool(ctx context.Context, url string) (bool, error) {
	res, err := c.Get(ctx, url, ShapeBool)
	return res.Bool, err
}

// Do executes req. GET and HEAD requests share a single round trip with every
// identical request already in flight on this Client. The context supplies
// values only: a dispatched request always runs to completion.
func (c *Client) Do(ctx context.Context, req Request) (Result, error) {
	if !supportedMethod(req.Method) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, req.Method)
	}

	start := time.Now()
	endpoint := getEndpoint(req.URL)
	requestID := c.requestID()

	if c.debugEnabled(c.debug.LogRequests) {
		c.logger.Debug("Starting request", "requestID", requestID, "method", req.Method, "url", req.URL, "shape", req.Shape.String())
	}

	if c.pending == nil || !c.dedupCondition(req.Method) {
		res, err := c.execute(ctx, req, requestID)
		c.recordOutcome(req, endpoint, res, err, start)
		return res, err
	}

	key := c.dedupKeyFunc(req.Method, req.URL)
	future, owner := c.pending.Join(key)
	if !owner {
		c.metrics.RecordDeduplicationHit(req.Method, endpoint)
		if c.debugEnabled(c.debug.LogDeduplication) {
			c.logger.Debug("Deduplication hit", "requestID", requestID, "dedupKey", key)
		}

		res, err := future.Wait()
		if err == nil {
			status := res.Status
			if res, err = adapt(res, req.Shape); err != nil {
				err = annotate(err, req, status)
			}
			res.Status = status
		}
		c.recordOutcome(req, endpoint, res, err, start)
		return res, err
	}

	c.metrics.RecordPendingSlots(c.pending.Len())
	if c.debugEnabled(c.debug.LogDeduplication) {
		c.logger.Debug("Deduplication miss - proceeding with request", "requestID", requestID, "dedupKey", key)
	}

	settled := false
	defer func() {
		if settled {
			return
		}
		r := recover()
		c.settle(key, Result{}, fmt.Errorf("restrepo: request for %s aborted: %v", key, r))
		if r != nil {
			panic(r)
		}
	}()

	res, err := c.execute(ctx, req, requestID)
	settled = true
	c.settle(key, res, err)
	c.recordOutcome(req, endpoint, res, err, start)
	return res, err
}

// execute performs one network round trip and coerces the payload. The
// response body is read exactly once.
func (c *Client) execute(ctx context.Context, req Request, requestID string) (Result, error) {
	endpoint := getEndpoint(req.URL)

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return Result{}, err
	}

	c.metrics.RecordRequestStart(req.Method, endpoint)
	resp, err := c.executeMiddleware(httpReq)
	c.metrics.RecordRequestEnd(req.Method, endpoint)
	if err != nil {
		return Result{}, newTransportError(req, "network request failed", err)
	}
	if resp == nil {
		return Result{}, newTransportError(req, "middleware returned no response", nil)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: resp.StatusCode}, newTransportError(req, "reading response body failed", err)
	}
	body := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		classified := c.classifier.Classify(resp.StatusCode, statusTextOf(resp), body)
		if c.debugEnabled(c.debug.LogRequests) {
			c.logger.Debug("Request failed", "requestID", requestID, "statusCode", resp.StatusCode, "error", classified.Error())
		}
		return Result{Status: resp.StatusCode}, annotate(classified, req, resp.StatusCode)
	}

	res, err := Coerce(body, req.Shape)
	if err != nil {
		return Result{Status: resp.StatusCode}, annotate(err, req, resp.StatusCode)
	}
	res.Status = resp.StatusCode

	if c.debugEnabled(c.debug.LogRequests) {
		c.logger.Debug("Request completed", "requestID", requestID, "statusCode", resp.StatusCode, "bytes", len(raw))
	}
	return res, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, newTransportError(req, "encoding request body failed", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(context.WithoutCancel(ctx), req.Method, req.URL, body)
	if err != nil {
		return nil, newTransportError(req, "invalid request", err)
	}

	for name, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Pragma", "no-cache")
	return httpReq, nil
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.httpClient.Do(req)
	}

	current := RoundTripperFunc(c.httpClient.Do)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

func (c *Client) recordOutcome(req Request, endpoint string, res Result, err error, start time.Time) {
	if c.metrics == nil {
		return
	}
	status := res.Status
	if err != nil {
		if s := StatusCode(err); s != 0 {
			status = s
		}
		if kind, ok := kindOf(err); ok {
			c.metrics.RecordError(kind, req.Method, endpoint)
		}
	}
	c.metrics.RecordRequest(req.Method, endpoint, status, time.Since(start))
}

func (c *Client) requestID() string {
	if c.debug == nil || !c.debug.Enabled || c.debug.RequestIDGen == nil {
		return ""
	}
	return c.debug.RequestIDGen()
}

func (c *Client) debugEnabled(category bool) bool {
	return c.debug != nil && c.debug.Enabled && category && c.logger != nil
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func supportedMethod(method string) bool {
	switch method {
	case http.MethodHead, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func newTransportError(req Request, message string, cause error) *ClientError {
	return &ClientError{
		Kind:      KindTransport,
		Message:   message,
		Method:    req.Method,
		URL:       req.URL,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// annotate stamps request context on a freshly built ClientError before it
// is returned or shared with joiners.
func annotate(err error, req Request, status int) error {
	if clientErr, ok := err.(*ClientError); ok {
		clientErr.Method = req.Method
		clientErr.URL = req.URL
		if clientErr.Status == 0 {
			clientErr.Status = status
		}
	}
	return err
}

func getEndpoint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)

	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}

	return builder.String()
}
