package application

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/library-db/internal/api"
	"github.com/eugenenazirov/library-db/internal/config"
	"github.com/eugenenazirov/library-db/internal/notify"
)

// App encapsulates the health API and its HTTP server.
type App struct {
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New wires the connected database into the health API. Failed health checks
// are alerted through notifier, throttled to one per cfg.Notify.AlertInterval.
func New(cfg config.Config, db api.Pinger, notifier notify.Notifier, logger *zap.Logger) (*App, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}

	handlerOpts := []api.HandlerOption{}
	if notifier != nil {
		handlerOpts = append(handlerOpts, api.WithNotifier(notify.NewThrottled(notifier, cfg.Notify.AlertInterval)))
	}

	handler := api.NewHandler(db, cfg, logger, handlerOpts...)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.HTTP.EnableRequestLogging),
		api.WithRateLimit(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
	)

	return &App{
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.HTTP.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}
