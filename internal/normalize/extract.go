// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package normalize

// extractor reads one candidate value for a canonical field.
type extractor[T any] func(object) (T, bool)

// first returns the first value produced by chain.
func first[T any](o object, chain ...extractor[T]) (T, bool) {
	for _, fn := range chain {
		if v, ok := fn(o); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// firstOr is first with a default.
func firstOr[T any](o object, def T, chain ...extractor[T]) T {
	if v, ok := first(o, chain...); ok {
		return v
	}
	return def
}

func str(keys ...string) extractor[string] {
	return func(o object) (string, bool) { return asString(lookup(o, keys...)) }
}

func text(keys ...string) extractor[string] {
	return func(o object) (string, bool) { return asText(lookup(o, keys...)) }
}

func num(keys ...string) extractor[float64] {
	return func(o object) (float64, bool) { return asNumber(lookup(o, keys...)) }
}

func numeric(keys ...string) extractor[float64] {
	return func(o object) (float64, bool) { return asNumeric(lookup(o, keys...)) }
}

func flag(keys ...string) extractor[bool] {
	return func(o object) (bool, bool) { return asBool(lookup(o, keys...)) }
}

// positive keeps only values greater than zero.
func positive(e extractor[float64]) extractor[float64] {
	return func(o object) (float64, bool) {
		v, ok := e(o)
		return v, ok && v > 0
	}
}

// scaled divides the extracted value by div.
func scaled(e extractor[float64], div float64) extractor[float64] {
	return func(o object) (float64, bool) {
		v, ok := e(o)
		if !ok {
			return 0, false
		}
		return v / div, true
	}
}

// when gates e on cond.
func when[T any](cond func(object) bool, e extractor[T]) extractor[T] {
	return func(o object) (T, bool) {
		if !cond(o) {
			var zero T
			return zero, false
		}
		return e(o)
	}
}

// present reports whether keys resolve to a non-null value.
func present(keys ...string) func(object) bool {
	return func(o object) bool { return lookup(o, keys...) != nil }
}

// intPtr converts an optional number to *int.
func intPtr(v float64, ok bool) *int {
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}
