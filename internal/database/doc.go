// Package database opens the single MySQL handle the application runs on.
// It translates the resolved configuration into go-sql-driver/mysql options
// and verifies the connection once with a ping. Nothing here retries or pools:
// a failed attempt is reported to the caller as ErrConnectionFailed.
package database
