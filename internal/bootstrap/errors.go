package bootstrap

import "github.com/eugenenazirov/library-db/internal/config"

const (
	// AlertSubject is the subject of the connection-failure alert.
	AlertSubject = "Database Connection Failed"

	// RedactedMessage replaces connection details shown to users in production.
	RedactedMessage = "Unable to connect to database. Please contact administrator."

	detailPrefix = "Database Connection Error: "
)

// ConnectionError reports a failed connection attempt.
type ConnectionError struct {
	// Detail is the full message, including driver output. It is logged and alerted.
	Detail string
	// Display is what users may see.
	Display string
	Err     error
}

func (e *ConnectionError) Error() string {
	return e.Detail
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ExitMessage is the line printed before the process terminates.
func (e *ConnectionError) ExitMessage() string {
	return "Error: " + e.Display
}

// DisplayMessage returns detail unless env is production.
func DisplayMessage(env, detail string) string {
	if env == config.EnvProduction {
		return RedactedMessage
	}
	return detail
}

// DetailMessage formats the full error text for a connection failure.
func DetailMessage(err error) string {
	return detailPrefix + err.Error()
}
