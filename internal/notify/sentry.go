package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// SentryNotifier reports alerts as Sentry events.
type SentryNotifier struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
}

// NewSentry creates a SentryNotifier with its own client, leaving the global hub alone.
func NewSentry(dsn, environment string) (*SentryNotifier, error) {
	return newSentryWithOptions(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
}

func newSentryWithOptions(opts sentry.ClientOptions) (*SentryNotifier, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create sentry client: %w", err)
	}
	return &SentryNotifier{
		hub:          sentry.NewHub(client, sentry.NewScope()),
		flushTimeout: sentryFlushTimeout,
	}, nil
}

// Notify implements Notifier.
func (n *SentryNotifier) Notify(ctx context.Context, subject, message string) error {
	hub := n.hub.Clone()

	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		scope.SetTag("alert.subject", subject)
		id = hub.CaptureMessage(subject + ": " + message)
	})
	if id == nil {
		return ErrSentryDropped
	}

	timeout := n.flushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if !hub.Flush(timeout) {
		return ErrSentryFlush
	}
	return nil
}
