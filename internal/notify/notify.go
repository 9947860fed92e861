package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/library-db/internal/config"
)

const dispatchTimeout = 10 * time.Second

// Notifier sends a single alert.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, subject, message string) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, subject, message string) error {
	return f(ctx, subject, message)
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, subject, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, subject, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes the alert to the process log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, subject, message string) error {
	n.logger.Warn(fmt.Sprintf("SNS Alert: %s - %s", subject, message),
		zap.String("subject", subject),
	)
	return nil
}

// Sink constructors, replaced in tests.
var (
	newSNSNotifier    = NewSNSFromConfig
	newSentryNotifier = NewSentry
)

// FromConfig builds the notifier chain for cfg. The boolean is false when no
// alert sink is configured, in which case the notifier is nil.
// A remote sink that fails to initialise is logged and skipped; the log sink
// is always part of an enabled chain.
func FromConfig(ctx context.Context, cfg config.Config, logger *zap.Logger) (Notifier, bool) {
	if !cfg.Notify.Enabled() {
		return nil, false
	}

	chain := Multi{NewLogNotifier(logger)}

	if cfg.Notify.SNSTopicARN != "" {
		sns, err := newSNSNotifier(ctx, cfg.Notify.AWSRegion, cfg.Notify.SNSTopicARN, logger)
		if err != nil {
			logger.Warn("sns alerts disabled",
				zap.String("topic_arn", cfg.Notify.SNSTopicARN),
				zap.Error(err),
			)
		} else {
			chain = append(chain, sns)
		}
	}

	if cfg.Notify.SentryDSN != "" {
		sentry, err := newSentryNotifier(cfg.Notify.SentryDSN, cfg.App.Env)
		if err != nil {
			logger.Warn("sentry alerts disabled", zap.Error(err))
		} else {
			chain = append(chain, sentry)
		}
	}

	return chain, true
}

// Dispatch sends an alert and swallows any failure after logging it.
// A nil notifier is a no-op.
func Dispatch(ctx context.Context, n Notifier, logger *zap.Logger, subject, message string) {
	if n == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	if err := n.Notify(ctx, subject, message); err != nil {
		if errors.Is(err, ErrThrottled) {
			logger.Debug("alert suppressed", zap.String("subject", subject))
			return
		}
		logger.Error("Failed to send SNS notification: "+err.Error(), zap.Error(err))
	}
}
