package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/eugenenazirov/library-db/internal/config"
	"github.com/eugenenazirov/library-db/internal/database"
	"github.com/eugenenazirov/library-db/internal/notify"
)

// Connector opens the database handle.
type Connector func(ctx context.Context, db config.Database, deploy config.Deployment) (*sqlx.DB, error)

// VersionReader reports the server version of a freshly opened handle.
type VersionReader func(ctx context.Context, db *sqlx.DB) (string, error)

func readServerVersion(ctx context.Context, db *sqlx.DB) (string, error) {
	return database.ServerVersion(ctx, db)
}

// Bootstrapper wires configuration, connector, alerts and logging for the
// startup connection attempt.
type Bootstrapper struct {
	cfg      config.Config
	connect  Connector
	version  VersionReader
	notifier notify.Notifier
	logger   *zap.Logger
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithConnector overrides database.Connect, primarily for tests.
func WithConnector(c Connector) Option {
	return func(b *Bootstrapper) {
		b.connect = c
	}
}

// WithVersionReader overrides how the server version is read after connecting.
func WithVersionReader(r VersionReader) Option {
	return func(b *Bootstrapper) {
		b.version = r
	}
}

// WithNotifier sets the alert sink. Without it failures are only logged.
func WithNotifier(n notify.Notifier) Option {
	return func(b *Bootstrapper) {
		b.notifier = n
	}
}

// New creates a Bootstrapper.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		cfg:     cfg,
		connect: database.Connect,
		version: readServerVersion,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run makes exactly one connection attempt. On failure it returns a
// *ConnectionError after logging and alerting; it never retries.
func (b *Bootstrapper) Run(ctx context.Context) (*sqlx.DB, error) {
	fields := []zap.Field{
		zap.String("host", b.cfg.Database.Host),
		zap.Int("port", b.cfg.Database.Port),
		zap.String("database", b.cfg.Database.Name),
		zap.String("user", b.cfg.Database.User),
		zap.String("app_env", b.cfg.App.Env),
		zap.Bool("elastic_beanstalk", b.cfg.Deployment.ElasticBeanstalk),
		zap.Bool("docker", b.cfg.Deployment.Docker),
	}
	b.logger.Debug("connecting to database", fields...)

	db, err := b.connect(ctx, b.cfg.Database, b.cfg.Deployment)
	if err != nil {
		detail := DetailMessage(err)
		b.logger.Error(detail, append(fields, zap.Error(err))...)

		notify.Dispatch(ctx, b.notifier, b.logger, AlertSubject, detail)

		return nil, &ConnectionError{
			Detail:  detail,
			Display: DisplayMessage(b.cfg.App.Env, detail),
			Err:     err,
		}
	}

	// The version is informational; the ping already proved the connection.
	version, err := b.version(ctx, db)
	if err != nil {
		b.logger.Warn("could not read server version", append(fields, zap.Error(err))...)
	} else {
		fields = append(fields, zap.String("server_version", version))
	}

	b.logger.Info("Database connection established successfully", fields...)
	return db, nil
}
