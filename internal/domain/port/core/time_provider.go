package core

import (
	"context"
	"time"
)

// TimeProvider abstracts time operations for the domain so that
// reconciliation delays and gateway timestamps are testable
type TimeProvider interface {
	// Now returns the current time
	Now() time.Time
	// Since returns the time elapsed since t
	Since(t time.Time) time.Duration
	// Sleep pauses the current goroutine for the given duration
	Sleep(d time.Duration)
	// After returns a channel that delivers the time after the given duration
	After(d time.Duration) <-chan time.Time
	// WithTimeout returns a context that will be canceled after the given timeout
	WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc)
}
