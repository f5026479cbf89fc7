package await

import (
	"cmp"
	"fmt"
)

// Matcher decides whether a polled value is acceptable
type Matcher[T any] interface {
	Matches(v T) bool
	String() string
}

type funcMatcher[T any] struct {
	desc string
	fn   func(T) bool
}

func (m funcMatcher[T]) Matches(v T) bool { return m.fn(v) }
func (m funcMatcher[T]) String() string   { return m.desc }

// Match wraps a predicate as a Matcher
func Match[T any](description string, fn func(T) bool) Matcher[T] {
	return funcMatcher[T]{desc: description, fn: fn}
}

// GreaterThanOrEqualTo matches values >= min
func GreaterThanOrEqualTo[T cmp.Ordered](min T) Matcher[T] {
	return Match(fmt.Sprintf("a value greater than or equal to <%v>", min), func(v T) bool {
		return v >= min
	})
}

// EqualTo matches values == want
func EqualTo[T comparable](want T) Matcher[T] {
	return Match(fmt.Sprintf("<%v>", want), func(v T) bool {
		return v == want
	})
}
