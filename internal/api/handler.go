package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/library-db/internal/bootstrap"
	"github.com/eugenenazirov/library-db/internal/config"
	"github.com/eugenenazirov/library-db/internal/notify"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	healthPath = "/api/health"
	infoPath   = "/api/info"
)

const defaultPingTimeout = 2 * time.Second

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves connection status for the resolved database.
type Handler struct {
	db       Pinger
	cfg      config.Config
	notifier notify.Notifier
	logger   *zap.Logger

	clock       func() time.Time
	pingTimeout time.Duration
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithNotifier sets where failed health checks are reported.
func WithNotifier(n notify.Notifier) HandlerOption {
	return func(h *Handler) {
		h.notifier = n
	}
}

// WithPingTimeout bounds each health check ping.
func WithPingTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.pingTimeout = d
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(db Pinger, cfg config.Config, logger *zap.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		db:     db,
		cfg:    cfg,
		logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		pingTimeout: defaultPingTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		detail := bootstrap.DetailMessage(err)
		h.logger.Error(detail,
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		notify.Dispatch(context.WithoutCancel(r.Context()), h.notifier, h.logger, bootstrap.AlertSubject, detail)

		writeError(w, http.StatusServiceUnavailable, "Database unavailable", bootstrap.DisplayMessage(h.cfg.App.Env, detail))
		return
	}

	resp := healthResponse{
		Status:      "ok",
		Environment: h.cfg.App.Env,
		Timestamp:   h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	resp := infoResponse{
		Environment: h.cfg.App.Env,
		Debug:       h.cfg.App.Debug,
		Deployment: deploymentInfo{
			ElasticBeanstalk: h.cfg.Deployment.ElasticBeanstalk,
			EnvironmentName:  h.cfg.Deployment.EnvironmentName,
			Docker:           h.cfg.Deployment.Docker,
		},
		Database: databaseInfo{
			Host: h.cfg.Database.Host,
			Port: h.cfg.Database.Port,
			Name: h.cfg.Database.Name,
		},
		Notifications: h.cfg.Notify.Enabled(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status      string    `json:"status"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

type infoResponse struct {
	Environment   string         `json:"environment"`
	Debug         bool           `json:"debug"`
	Deployment    deploymentInfo `json:"deployment"`
	Database      databaseInfo   `json:"database"`
	Notifications bool           `json:"notifications"`
}

type deploymentInfo struct {
	ElasticBeanstalk bool   `json:"elasticBeanstalk"`
	EnvironmentName  string `json:"environmentName,omitempty"`
	Docker           bool   `json:"docker"`
}

type databaseInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Name string `json:"name"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}
