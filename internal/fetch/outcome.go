package fetch

import "errors"

// Outcome is the result of a platform call. A nil Err means the upstream
// answered, possibly with an empty value; a non-nil Err means it was
// unavailable or returned something unusable. Callers decide explicitly how
// to treat the unavailable case, usually via OrZero.
type Outcome[T any] struct {
	Value T
	Err   error
}

// OK wraps a value that the upstream returned.
func OK[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Unavailable records that the upstream could not provide a value.
func Unavailable[T any](err error) Outcome[T] {
	if err == nil {
		err = errors.New("upstream unavailable")
	}
	return Outcome[T]{Err: err}
}

// Available reports whether the upstream answered.
func (o Outcome[T]) Available() bool {
	return o.Err == nil
}

// OrZero returns the value, or the zero value when unavailable.
func (o Outcome[T]) OrZero() T {
	if o.Err != nil {
		var zero T
		return zero
	}
	return o.Value
}

// Get returns the value and error in the usual Go form.
func (o Outcome[T]) Get() (T, error) {
	return o.Value, o.Err
}
