package database

import "errors"

var (
	// ErrConnectionFailed wraps every failure to open or verify the connection.
	ErrConnectionFailed = errors.New("database: connection failed")
)
