// Package result provides an explicit success-or-failure value for read paths
// that must always produce something renderable.
package result

import "encoding/json"

// Result holds either a value or a failure reason. A failed Result still
// carries a fallback value so callers can render an empty state.
type Result[T any] struct {
	value  T
	reason string
	failed bool
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err records a human-readable reason alongside the fallback value.
func Err[T any](reason string, fallback T) Result[T] {
	return Result[T]{value: fallback, reason: reason, failed: true}
}

func (r Result[T]) IsOk() bool { return !r.failed }

// Reason is empty for successful results.
func (r Result[T]) Reason() string { return r.reason }

// Value returns the value and whether the result succeeded.
func (r Result[T]) Value() (T, bool) { return r.value, !r.failed }

// ValueOr returns the value on success and def otherwise.
func (r Result[T]) ValueOr(def T) T {
	if r.failed {
		return def
	}
	return r.value
}

// Fallback returns the stored value regardless of outcome.
func (r Result[T]) Fallback() T { return r.value }

type envelope[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope[T]{Data: r.value, Error: r.reason})
}

func (r *Result[T]) UnmarshalJSON(b []byte) error {
	var env envelope[T]
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	r.value = env.Data
	r.reason = env.Error
	r.failed = env.Error != ""
	return nil
}

// Map transforms a successful value; failures keep their reason and map the fallback.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.failed {
		return Err(r.reason, fn(r.value))
	}
	return Ok(fn(r.value))
}
