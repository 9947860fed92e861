package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDHeader = "X-Request-ID"

// RouterOption configures the behaviour of NewRouter.
type RouterOption func(*routerConfig)

// WithLogging controls whether access logs are emitted.
func WithLogging(enabled bool) RouterOption {
	return func(cfg *routerConfig) {
		cfg.accessLog = enabled
	}
}

// WithRateLimit configures the shared token bucket. A zero rate or burst
// disables limiting.
func WithRateLimit(rps float64, burst int) RouterOption {
	return func(cfg *routerConfig) {
		if rps <= 0 || burst <= 0 {
			cfg.limits.limiter = nil
			return
		}
		cfg.limits.limiter = newTokenBucket(rps, burst)
	}
}

// WithRateLimiter replaces the token bucket, mostly for tests.
func WithRateLimiter(limiter requestLimiter) RouterOption {
	return func(cfg *routerConfig) {
		cfg.limits.limiter = limiter
	}
}

// WithUnlimitedPaths replaces the set of paths that bypass rate limiting.
// By default only the health check does.
func WithUnlimitedPaths(paths ...string) RouterOption {
	return func(cfg *routerConfig) {
		cfg.limits.exempt = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			cfg.limits.exempt[p] = struct{}{}
		}
	}
}

type routerConfig struct {
	accessLog bool
	limits    limitPolicy
}

type middleware func(http.Handler) http.Handler

// NewRouter exposes the health and info endpoints. Requests pass through
// request ID assignment, rate limiting, access logging and panic recovery,
// in that order.
func NewRouter(handler *Handler, logger *zap.Logger, opts ...RouterOption) http.Handler {
	cfg := routerConfig{
		accessLog: true,
		limits: limitPolicy{
			limiter: newTokenBucket(25, 50),
			exempt:  map[string]struct{}{healthPath: {}},
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthPath, handler.handleHealth)
	mux.HandleFunc("GET "+infoPath, handler.handleInfo)

	chain := []middleware{requestIDMiddleware, cfg.limits.wrap}
	if cfg.accessLog {
		chain = append(chain, func(next http.Handler) http.Handler {
			return loggingMiddleware(logger, next)
		})
	}
	chain = append(chain, func(next http.Handler) http.Handler {
		return recoveryMiddleware(logger, next)
	})

	var root http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		root = chain[i](root)
	}
	return root
}

// loggingMiddleware writes one access log entry per request. Successful
// health checks are logged at debug.
func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		level := zapcore.InfoLevel
		if r.URL.Path == healthPath && rec.status == http.StatusOK {
			level = zapcore.DebugLevel
		}
		if ce := logger.Check(level, "request completed"); ce != nil {
			ce.Write(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestIDFromContext(r.Context())),
			)
		}
	})
}

func recoveryMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestIDFromContext(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "Internal error", "unexpected server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware reuses an incoming X-Request-ID (as set by the ALB or
// an upstream proxy) or mints one, and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDContextKey, id)))
	})
}

func newRequestID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf[:])
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
