package transport

import (
	"context"
	"fmt"
	"io"
	"time"
)

type deadliner interface {
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
}

// interruptOnDone unblocks pending I/O on rw once ctx is done by moving
// its deadline into the past. rw without deadlines can't be interrupted.
func interruptOnDone(ctx context.Context, rw io.ReadWriter) (stop func() bool) {
	d, ok := rw.(deadliner)
	if !ok || ctx.Done() == nil {
		return func() bool { return true }
	}
	return context.AfterFunc(ctx, func() {
		d.SetDeadline(time.Unix(1, 0))
	})
}

// classify attaches kind to err, preferring the context's error when the
// failure was caused by cancellation.
func classify(ctx context.Context, kind, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %w", kind, cerr)
	}
	return fmt.Errorf("%w: %w", kind, err)
}
