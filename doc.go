// Package restrepo provides a client-side access layer for JSON REST backends:
//
//   - Request de‑duplication (concurrent identical GET / HEAD calls share one round trip)
//   - Error normalization (transport, network and backend errors as *ClientError)
//   - Typed results (string, number, bool, object, array or nothing per request)
//   - Pluggable backend error dialects and model constructors
//   - Error reporting with an authentication redirect hook
//   - Prometheus metrics and leveled structured logging
//
// Typical usage:
//
//	client := restrepo.New(
//	    restrepo.WithTimeout(10*time.Second),
//	    restrepo.WithBackendErrorParser(restrepo.FieldBackendErrorParser{}),
//	)
//	user, err := restrepo.GetObject[User](ctx, client, "https://api.example.com/me", nil)
//
// Every request is sent with "Content-Type: application/json" and
// "Pragma: no-cache", carries the client's cookies and runs to completion once
// dispatched: there are no retries and no cancellation. Non-2xx responses are
// classified by the first character of their body (HTML, JSON or text).
package restrepo
