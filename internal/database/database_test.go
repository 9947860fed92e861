package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/library-db/internal/config"
)

func testDatabase() config.Database {
	return config.Database{
		Host:           "db.example.internal",
		Port:           3306,
		User:           "library",
		Password:       "s3cret",
		Name:           "library",
		ConnectTimeout: 2 * time.Second,
	}
}

func TestOptions(t *testing.T) {
	cfg := Options(testDatabase(), config.Deployment{})

	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db.example.internal:3306", cfg.Addr)
	assert.Equal(t, "library", cfg.User)
	assert.Equal(t, "s3cret", cfg.Passwd)
	assert.Equal(t, "library", cfg.DBName)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "utf8", cfg.Params["charset"])
	assert.Empty(t, cfg.TLSConfig)
}

func TestOptionsElasticBeanstalkSkipsCertificateVerification(t *testing.T) {
	cfg := Options(testDatabase(), config.Deployment{ElasticBeanstalk: true, EnvironmentName: "library-prod"})
	assert.Equal(t, "skip-verify", cfg.TLSConfig)

	dockerOnly := Options(testDatabase(), config.Deployment{Docker: true})
	assert.Empty(t, dockerOnly.TLSConfig)
}

func TestOptionsIPv6Host(t *testing.T) {
	db := testDatabase()
	db.Host = "::1"
	assert.Equal(t, "[::1]:3306", Options(db, config.Deployment{}).Addr)
}

func TestDSNRoundTrip(t *testing.T) {
	dsn := DSN(testDatabase(), config.Deployment{ElasticBeanstalk: true})

	assert.Contains(t, dsn, "library:s3cret@tcp(db.example.internal:3306)/library")
	assert.Contains(t, dsn, "charset=utf8")
	assert.Contains(t, dsn, "tls=skip-verify")

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.example.internal:3306", parsed.Addr)
	assert.Equal(t, "library", parsed.DBName)
	assert.Equal(t, 2*time.Second, parsed.Timeout)
}

func TestConnectFailsWhenServerUnreachable(t *testing.T) {
	db := testDatabase()
	db.Host = "127.0.0.1"
	db.Port = 1
	db.ConnectTimeout = time.Second

	conn, err := Connect(context.Background(), db, config.Deployment{})
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestConnectRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Connect(ctx, testDatabase(), config.Deployment{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestShutdownHandlesNil(t *testing.T) {
	assert.NoError(t, Shutdown(nil)(context.Background()))
}

type fakeQuerier struct {
	version string
	err     error
	query   string
}

func (f *fakeQuerier) GetContext(_ context.Context, dest any, query string, _ ...any) error {
	f.query = query
	if f.err != nil {
		return f.err
	}
	out, ok := dest.(*string)
	if !ok {
		return errors.New("unexpected destination type")
	}
	*out = f.version
	return nil
}

func TestServerVersion(t *testing.T) {
	q := &fakeQuerier{version: "8.0.35"}

	version, err := ServerVersion(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "8.0.35", version)
	assert.Equal(t, "SELECT VERSION()", q.query)
}

func TestServerVersionWrapsQueryError(t *testing.T) {
	cause := errors.New("server has gone away")

	version, err := ServerVersion(context.Background(), &fakeQuerier{err: cause})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, version)
}
