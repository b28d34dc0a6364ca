// Package counter supply counters backed by a shared store
package counter

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable the store can't be reached: dial, network, pool or timeout failures
	ErrStoreUnavailable = errors.New("counter store unavailable")
	// ErrStoreProtocol the store replied with an error or an unexpected value
	ErrStoreProtocol = errors.New("counter store protocol error")
)

// Counter service
type Counter interface {
	// GetName counter service name
	GetName() string
	// Incr atomically increases the counter `name` by 1 and returns the new value.
	// A missing counter is created by the first Incr and the result is 1.
	Incr(ctx context.Context, name string) (int64, error)
	// Get the value of counter `name`, ok is false if the counter doesn't exist
	Get(ctx context.Context, name string) (value int64, ok bool, err error)
}

// Error wraps a failed counter operation. Kind is ErrStoreUnavailable or ErrStoreProtocol.
type Error struct {
	Op   string
	Name string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Op + " " + e.Name + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of e
func (e *Error) Is(target error) bool {
	return target == e.Kind
}
