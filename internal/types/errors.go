package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the only error that ends a session before any work starts.
	ErrInvalidInput = errors.New("invalid input")

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrResourceExhausted   = errors.New("resource exhausted")
	ErrStreamUnavailable   = fmt.Errorf("stream unavailable: %w", ErrUpstreamUnavailable)
)

// Result is a stage outcome. Degraded values are still usable; Reason says
// which fallback produced them.
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   string
}

func OK[T any](v T) Result[T] { return Result[T]{Value: v} }

func Degrade[T any](v T, reason string) Result[T] {
	return Result[T]{Value: v, Degraded: true, Reason: reason}
}

func Degradef[T any](v T, format string, args ...any) Result[T] {
	return Degrade(v, fmt.Sprintf(format, args...))
}
