package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/library-db/internal/bootstrap"
	"github.com/eugenenazirov/library-db/internal/config"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) PingContext(context.Context) error {
	return s.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingNotifier) Notify(_ context.Context, subject, _ string) error {
	r.mu.Lock()
	r.subjects = append(r.subjects, subject)
	r.mu.Unlock()
	return nil
}

func testConfig(env string) config.Config {
	return config.Config{
		Database:   config.Database{Host: "rds.example", Port: 3306, User: "admin", Password: "pw", Name: "library"},
		App:        config.App{Env: env, LogLevel: "info"},
		Deployment: config.Deployment{ElasticBeanstalk: true, EnvironmentName: "library-prod"},
	}
}

var fixedTime = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

func setupTestRouter(t *testing.T, pinger Pinger, env string, opts ...HandlerOption) http.Handler {
	t.Helper()

	logger := zaptest.NewLogger(t)
	opts = append([]HandlerOption{WithClock(func() time.Time { return fixedTime })}, opts...)
	handler := NewHandler(pinger, testConfig(env), logger, opts...)
	return NewRouter(handler, logger, WithLogging(false))
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := context.WithValue(context.Background(), requestIDContextKey, "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %s", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubPinger{}, "production")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Environment != "production" || !resp.Timestamp.Equal(fixedTime) {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}

func TestHealthEndpointRedactsInProduction(t *testing.T) {
	notifier := &recordingNotifier{}
	router := setupTestRouter(t, &stubPinger{err: errors.New("Access denied for user 'admin'")}, "production", WithNotifier(notifier))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Details != bootstrap.RedactedMessage {
		t.Fatalf("expected redacted details, got %q", resp.Details)
	}
	if len(notifier.subjects) != 1 || notifier.subjects[0] != bootstrap.AlertSubject {
		t.Fatalf("expected one alert, got %v", notifier.subjects)
	}
}

func TestHealthEndpointShowsDetailOutsideProduction(t *testing.T) {
	router := setupTestRouter(t, &stubPinger{err: errors.New("connection refused")}, "development")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Details != "Database Connection Error: connection refused" {
		t.Fatalf("expected verbatim details, got %q", resp.Details)
	}
}

func TestInfoEndpointOmitsCredentials(t *testing.T) {
	router := setupTestRouter(t, &stubPinger{}, "staging")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	db, ok := raw["database"].(map[string]any)
	if !ok {
		t.Fatalf("expected database section, got %v", raw)
	}
	if _, leaked := db["password"]; leaked {
		t.Fatalf("password must not be exposed")
	}
	if _, leaked := db["user"]; leaked {
		t.Fatalf("user must not be exposed")
	}
	if db["host"] != "rds.example" || raw["environment"] != "staging" {
		t.Fatalf("unexpected info payload: %v", raw)
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	router := setupTestRouter(t, &stubPinger{}, "production")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
