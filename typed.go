package restrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Constructor builds a typed model instance from one JSON object.
type Constructor[T any] func(raw json.RawMessage) (T, error)

// JSONConstructor decodes raw into T with encoding/json.
func JSONConstructor[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// FetchObject performs the request expecting a JSON object and feeds it
// through construct. A nil construct uses JSONConstructor.
func FetchObject[T any](ctx context.Context, c *Client, method, url string, body interface{}, construct Constructor[T]) (T, error) {
	var zero T
	if construct == nil {
		construct = JSONConstructor[T]
	}

	res, err := c.Do(ctx, Request{Method: method, URL: url, Body: body, Shape: ShapeObject})
	if err != nil {
		return zero, err
	}

	out, err := construct(res.Object)
	if err != nil {
		return zero, fmt.Errorf("restrepo: construct %T: %w", zero, err)
	}
	return out, nil
}

// FetchList performs the request expecting a JSON array of objects and feeds
// every element through construct, preserving order.
func FetchList[T any](ctx context.Context, c *Client, method, url string, body interface{}, construct Constructor[T]) ([]T, error) {
	if construct == nil {
		construct = JSONConstructor[T]
	}

	res, err := c.Do(ctx, Request{Method: method, URL: url, Body: body, Shape: ShapeArray})
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(res.Items))
	for i, item := range res.Items {
		v, err := construct(item)
		if err != nil {
			var zero T
			return nil, fmt.Errorf("restrepo: construct %T at index %d: %w", zero, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GetObject is FetchObject for a GET request.
func GetObject[T any](ctx context.Context, c *Client, url string, construct Constructor[T]) (T, error) {
	return FetchObject(ctx, c, http.MethodGet, url, nil, construct)
}

// GetList is FetchList for a GET request.
func GetList[T any](ctx context.Context, c *Client, url string, construct Constructor[T]) ([]T, error) {
	return FetchList(ctx, c, http.MethodGet, url, nil, construct)
}

// PostObject is FetchObject for a POST request.
func PostObject[T any](ctx context.Context, c *Client, url string, body interface{}, construct Constructor[T]) (T, error) {
	return FetchObject(ctx, c, http.MethodPost, url, body, construct)
}

// PutObject is FetchObject for a PUT request.
func PutObject[T any](ctx context.Context, c *Client, url string, body interface{}, construct Constructor[T]) (T, error) {
	return FetchObject(ctx, c, http.MethodPut, url, body, construct)
}
