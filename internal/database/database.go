package database

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/eugenenazirov/library-db/internal/config"
)

const (
	driverName = "mysql"

	// sessionCharset is applied with SET NAMES when the session starts.
	sessionCharset = "utf8"

	// tlsSkipVerify is the driver's built-in TLS profile that encrypts
	// without checking the server certificate.
	tlsSkipVerify = "skip-verify"
)

// Options builds the driver configuration for the given settings.
// On Elastic Beanstalk the RDS certificate is not verified.
func Options(db config.Database, deploy config.Deployment) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = db.User
	cfg.Passwd = db.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
	cfg.DBName = db.Name
	cfg.Timeout = db.ConnectTimeout
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": sessionCharset}

	if deploy.ElasticBeanstalk {
		cfg.TLSConfig = tlsSkipVerify
	}

	return cfg
}

// DSN returns the driver DSN for the given settings.
func DSN(db config.Database, deploy config.Deployment) string {
	return Options(db, deploy).FormatDSN()
}

// Connect opens a single connection and verifies it with a ping.
func Connect(ctx context.Context, db config.Database, deploy config.Deployment) (*sqlx.DB, error) {
	conn, err := sqlx.Open(driverName, DSN(db, deploy))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// One handle, one connection: the application does not pool.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, db.ConnectTimeout)
	defer cancel()

	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return conn, nil
}

// VersionQuerier is the sqlx single-row query method; *sqlx.DB satisfies it.
type VersionQuerier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// ServerVersion reports the MySQL server version of an open handle.
func ServerVersion(ctx context.Context, db VersionQuerier) (string, error) {
	var version string
	if err := db.GetContext(ctx, &version, "SELECT VERSION()"); err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return version, nil
}

// Shutdown returns a function that closes the handle, for use in shutdown hooks.
func Shutdown(db *sqlx.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if db == nil {
			return nil
		}
		return db.Close()
	}
}
