package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TempDBPath(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	return filepath.Join(root, "history.db")
}

// SleepRecorder is a pacing.Sleeper that records delays instead of waiting.
type SleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *SleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *SleepRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.delays))
	copy(out, r.delays)
	return out
}

func (r *SleepRecorder) Count(d time.Duration) int {
	count := 0
	for _, delay := range r.Delays() {
		if delay == d {
			count++
		}
	}
	return count
}

func NoSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
