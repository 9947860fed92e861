package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/library-db/internal/application"
	"github.com/eugenenazirov/library-db/internal/bootstrap"
	"github.com/eugenenazirov/library-db/internal/config"
	"github.com/eugenenazirov/library-db/internal/database"
	"github.com/eugenenazirov/library-db/internal/logging"
	"github.com/eugenenazirov/library-db/internal/notify"
)

const (
	exitOK          = 0
	exitConnectFail = 1
	exitUsage       = 2
)

var signalNotify = signal.Notify

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New("librarydb", "Library database bootstrap - resolves RDS connection settings and opens the database")
	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)

	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	envFile := kingpinApp.Flag("env-file", "Path to a .env file loaded before resolving the environment").String()
	dbHost := kingpinApp.Flag("db-host", "Database host (overrides RDS_DB_HOST and DB_HOST)").String()
	dbPort := kingpinApp.Flag("db-port", "Database port").Default("0").Int()
	dbUser := kingpinApp.Flag("db-user", "Database user (overrides RDS_DB_USER and DB_USER)").String()
	dbName := kingpinApp.Flag("db-name", "Database name (overrides RDS_DB_NAME and DB_NAME)").String()
	appEnv := kingpinApp.Flag("app-env", "Application environment (overrides APP_ENV)").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (overrides LOG_LEVEL)").String()
	port := kingpinApp.Flag("port", "HTTP port for the serve command").String()
	connectTimeout := kingpinApp.Flag("connect-timeout", "Timeout for the connection attempt").Default("0s").Duration()

	checkCmd := kingpinApp.Command("check", "Connect once, report the result and exit").Default()
	serveCmd := kingpinApp.Command("serve", "Connect, then serve the health API until interrupted")

	command, err := kingpinApp.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "librarydb: %v\n", err)
		return exitUsage
	}

	overrides := &config.CLIOverrides{
		ConfigFile:     *configFile,
		EnvFile:        *envFile,
		DBHost:         dbHost,
		DBPort:         dbPort,
		DBUser:         dbUser,
		DBName:         dbName,
		AppEnv:         appEnv,
		LogLevel:       logLevel,
		Port:           port,
		ConnectTimeout: connectTimeout,
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitUsage
	}

	logger, err := logging.New(logging.Options{
		Level: cfg.App.LogLevel,
		Debug: cfg.App.Debug,
		JSON:  cfg.App.EnableCloudWatch,
	})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitUsage
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Debug("configuration resolved", zap.Any("config", cfg.Redacted()))

	notifier, enabled := notify.FromConfig(ctx, cfg, logger)
	if !enabled {
		logger.Debug("alerts disabled: neither SNS_TOPIC_ARN nor SENTRY_DSN is set")
	}

	db, err := bootstrap.New(cfg, logger, bootstrap.WithNotifier(notifier)).Run(ctx)
	if err != nil {
		var connErr *bootstrap.ConnectionError
		if errors.As(err, &connErr) {
			fmt.Fprintln(stdout, connErr.ExitMessage())
		} else {
			fmt.Fprintf(stdout, "Error: %v\n", err)
		}
		return exitConnectFail
	}
	closeDB := database.Shutdown(db)
	defer func() {
		if err := closeDB(ctx); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	switch command {
	case checkCmd.FullCommand():
		return exitOK
	case serveCmd.FullCommand():
		app, err := application.New(cfg, db, notifier, logger)
		if err != nil {
			logger.Error("failed to initialize application", zap.Error(err))
			return exitConnectFail
		}
		if err := app.Start(); err != nil {
			logger.Error("failed to start server", zap.Error(err))
			return exitConnectFail
		}
		shutdown(app.Server(), cfg.HTTP.ShutdownGracePeriod, logger)
	}

	return exitOK
}

// shutdownSignals are the signals that stop the serve command. Elastic
// Beanstalk and Docker send SIGTERM; SIGINT covers a local Ctrl-C.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// shutdown blocks until a shutdown signal arrives, then drains the health
// server within timeout and force-closes it if draining fails.
func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, shutdownSignals...)

	sig := <-quit
	logger.Info("shutting down health server",
		zap.String("signal", sig.String()),
		zap.Duration("grace_period", timeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
