package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the courtesy pause between successive article fetches.
const DefaultDelay = time.Second

// Throttle spaces out successive fetches against a publisher.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows one fetch per delay. A non-positive delay disables
// throttling.
func NewThrottle(delay time.Duration) *Throttle {
	if delay <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next fetch is allowed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
