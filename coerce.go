package restrepo

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Coerce narrows a raw response body to the declared shape. Arrays and objects
// are recognised by their leading character only; string payloads are used
// verbatim. A payload matching no rule yields a type mismatch NetworkError.
func Coerce(raw string, shape Shape) (Result, error) {
	res := Result{Shape: shape, Raw: raw}

	switch {
	case shape == ShapeArray && strings.HasPrefix(raw, "["):
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return Result{}, newTypeMismatchError(raw, err)
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		res.Items = items
	case shape == ShapeObject && strings.HasPrefix(raw, "{"):
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return Result{}, newTypeMismatchError(raw, err)
		}
		res.Object = json.RawMessage(raw)
	case shape == ShapeString:
		res.Text = raw
	case shape == ShapeNumber:
		n, err := parseNumber(raw)
		if err != nil {
			return Result{}, newTypeMismatchError(raw, err)
		}
		res.Number = n
	case shape == ShapeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Result{}, newTypeMismatchError(raw, err)
		}
		res.Bool = b
	case shape == ShapeVoid:
	default:
		return Result{}, newTypeMismatchError(raw, nil)
	}

	return res, nil
}

// parseNumber treats an empty body as zero.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
