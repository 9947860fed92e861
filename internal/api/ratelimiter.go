package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// requestLimiter admits or rejects a single request.
type requestLimiter interface {
	Allow() bool
}

// tokenBucket shares one x/time/rate bucket across every limited route.
type tokenBucket struct {
	bucket *rate.Limiter
}

func newTokenBucket(rps float64, burst int) *tokenBucket {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{bucket: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (b *tokenBucket) Allow() bool {
	return b.bucket.Allow()
}

// RetryAfter is the time one token takes to refill, rounded up to whole
// seconds as the Retry-After header requires.
func (b *tokenBucket) RetryAfter() time.Duration {
	secs := math.Ceil(1 / float64(b.bucket.Limit()))
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// limitPolicy applies a limiter to every path except the exempt ones.
type limitPolicy struct {
	limiter requestLimiter
	exempt  map[string]struct{}
}

func (p limitPolicy) wrap(next http.Handler) http.Handler {
	if p.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := p.exempt[r.URL.Path]; ok || p.limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter(p.limiter)/time.Second)))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}

func retryAfter(limiter requestLimiter) time.Duration {
	if hinted, ok := limiter.(interface{ RetryAfter() time.Duration }); ok {
		if d := hinted.RetryAfter(); d >= time.Second {
			return d
		}
	}
	return time.Second
}
