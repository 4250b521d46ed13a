package pacing

import (
	"context"
	"time"
)

const (
	Stage          = 400 * time.Millisecond
	Request        = 2 * time.Second
	Account        = 3 * time.Second
	RequestTimeout = 20 * time.Second

	LikeDetail   = 800 * time.Millisecond
	ViewDetail   = 1200 * time.Millisecond
	ViewLinger   = 800 * time.Millisecond
	ViewSettle   = 1500 * time.Millisecond
	ViewSecond   = 600 * time.Millisecond
	BeforeClaims = 1 * time.Second
)

// Sleeper suspends the calling sequence for d. It returns early with the
// context error when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Or returns s, falling back to Sleep when s is nil.
func Or(s Sleeper) Sleeper {
	if s == nil {
		return Sleep
	}
	return s
}
