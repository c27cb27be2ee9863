package workflows

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
)

// Throttle spaces remote calls at a fixed interval and pauses once for a
// cooldown after a rate-limited response. Failed calls are never retried.
type Throttle struct {
	limiter  *rate.Limiter
	cooldown time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewThrottle returns a throttle that lets one call through per interval.
// A zero interval disables spacing.
func NewThrottle(interval, cooldown time.Duration) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{
		limiter:  rate.NewLimiter(limit, 1),
		cooldown: cooldown,
		sleep:    sleepContext,
	}
}

// Wait blocks until the next call may be issued or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Backoff sleeps for the cooldown when err is a rate-limit response and
// reports whether it did. The returned error is non-nil only when ctx ended
// during the pause.
func (t *Throttle) Backoff(ctx context.Context, err error) (bool, error) {
	if !cliniko.IsRateLimited(err) {
		return false, nil
	}
	return true, t.sleep(ctx, t.cooldown)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
