package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttled lets at most one alert through per interval.
type Throttled struct {
	next    Notifier
	limiter *rate.Limiter
}

// NewThrottled wraps next with a token bucket of one token refilled every interval.
func NewThrottled(next Notifier, interval time.Duration) *Throttled {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Notify implements Notifier. Suppressed alerts return ErrThrottled.
func (t *Throttled) Notify(ctx context.Context, subject, message string) error {
	if t == nil || t.next == nil {
		return nil
	}
	if !t.limiter.Allow() {
		return ErrThrottled
	}
	return t.next.Notify(ctx, subject, message)
}
