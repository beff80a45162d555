package pool

import (
	"context"
	"errors"
)

var (
	ErrInvalidSize = errors.New("pool size must be positive")
	ErrPoolClosed  = errors.New("pool is closed")
	ErrNilJob      = errors.New("job is nil")
	// ErrCancelled is reported for jobs dropped by CloseNow.
	ErrCancelled = errors.New("job cancelled")
)

func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrCancelled)
}
