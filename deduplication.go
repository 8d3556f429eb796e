package restrepo

import (
	"fmt"
	"net/http"

	"github.com/ambiyansyah-risyal/restrepo/internal/inflight"
)

// DeduplicationKeyFunc builds a key for identifying identical in-flight requests.
type DeduplicationKeyFunc func(method, url string) string

// DefaultDeduplicationKeyFunc builds a key from method + URL.
func DefaultDeduplicationKeyFunc(method, url string) string {
	return fmt.Sprintf("%s:%s", method, url)
}

// DeduplicationCondition decides whether a method is eligible for deduplication.
type DeduplicationCondition func(method string) bool

// DefaultDeduplicationCondition enables deduplication for read-only methods.
func DefaultDeduplicationCondition(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func newPendingTable(c *Client) *inflight.Table[Result] {
	return inflight.New[Result](func(key string, recovered interface{}) {
		c.metrics.RecordCallbackPanic()
		logger := c.logger
		if logger == nil {
			logger = c.diagnostics
		}
		logger.Error("Waiter callback panicked during fan-out", "dedupKey", key, "panic", recovered)
	})
}

// Subscribe queues cb on the in-flight request for method and url. It reports
// false when no such request is in flight; cb then is never called. A panic in
// cb is recovered and logged without affecting other waiters.
func (c *Client) Subscribe(method, url string, cb func(Result, error)) bool {
	if c.pending == nil || !c.dedupCondition(method) {
		return false
	}
	return c.pending.Attach(c.dedupKeyFunc(method, url), cb)
}

// InFlight returns the number of open deduplication slots.
func (c *Client) InFlight() int {
	if c.pending == nil {
		return 0
	}
	return c.pending.Len()
}

// settle drains the slot for key with the owner's outcome.
func (c *Client) settle(key string, res Result, err error) {
	var notified int
	if err != nil {
		notified = c.pending.Reject(key, err)
	} else {
		notified = c.pending.Resolve(key, res)
	}
	c.metrics.RecordPendingSlots(c.pending.Len())

	if c.debugEnabled(c.debug.LogDeduplication) {
		c.logger.Debug("Deduplication slot settled", "dedupKey", key, "waiters", notified, "failed", err != nil)
	}
}

// adapt re-coerces a shared result for a joiner that declared another shape.
func adapt(res Result, shape Shape) (Result, error) {
	if res.Shape == shape {
		return res, nil
	}
	return Coerce(res.Raw, shape)
}
