// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package normalize

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/omnistream/internal/bandwidth"
)

type object = map[string]any

// Decode parses a response body into a generic tree. Numbers are kept as
// json.Number so tick counts survive without float rounding surprises.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// lookup walks v along keys. Object keys select fields; integer keys index
// into lists.
func lookup(v any, keys ...string) any {
	cur := v
	for _, k := range keys {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[k]
		case []any:
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

func asObject(v any) (object, bool) {
	o, ok := v.(map[string]any)
	return o, ok
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

// asString accepts non-blank strings only.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// asText accepts strings and numbers, rendering numbers without a trailing ".0".
func asText(v any) (string, bool) {
	if s, ok := asString(v); ok {
		return s, true
	}
	if n, ok := asNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

// asNumber accepts JSON numbers only.
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// asNumeric accepts numbers and strings that start with a number.
func asNumeric(v any) (float64, bool) {
	if f, ok := asNumber(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return bandwidth.ParseLeading(s)
	}
	return 0, false
}

// asBool accepts booleans, 0/1 numbers and "true"/"false"/"1"/"0" strings.
func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
		return false, false
	}
	if n, ok := asNumber(v); ok {
		switch n {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}

// typeTag names the JSON type of v the way a dynamic language would.
func typeTag(v any) string {
	switch v.(type) {
	case nil:
		return "unknown"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return "object"
	}
}
