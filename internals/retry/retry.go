package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/PhantomStrikers/sanguoxianhua/internals/pacing"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 800 * time.Millisecond
)

// Policy retries a failing call up to MaxRetries extra times. The delay
// before retry n (starting at 1) is BaseDelay * 2^(n-1).
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      pacing.Sleeper
}

func Default() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Sleep:      pacing.Sleep,
	}
}

func (p Policy) backoff() goretry.Backoff {
	var b goretry.Backoff
	if p.BaseDelay > 0 {
		b = goretry.NewExponential(p.BaseDelay)
	} else {
		b = goretry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return goretry.WithMaxRetries(uint64(maxRetries), b)
}

// Do runs fn until it succeeds or the policy is exhausted. The last error is
// returned unchanged. A cancelled context during backoff returns the context
// error.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	sleep := pacing.Or(p.Sleep)
	backoff := p.backoff()
	for {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		delay, stop := backoff.Next()
		if stop {
			return value, err
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return value, sleepErr
		}
	}
}
