package notify

import "errors"

var (
	// ErrPublishFailed wraps any error returned by the SNS Publish call.
	ErrPublishFailed = errors.New("notify: SNS publish failed")
	// ErrSentryDropped means the Sentry client returned no event ID.
	ErrSentryDropped = errors.New("notify: sentry dropped the event")
	// ErrSentryFlush means buffered Sentry events were not delivered in time.
	ErrSentryFlush = errors.New("notify: sentry flush timed out")
	// ErrThrottled is returned by Throttled when an alert is suppressed.
	// Dispatch treats it as a normal outcome and logs it at debug.
	ErrThrottled = errors.New("notify: alert throttled")
	// ErrMissingTopic is returned when an SNS notifier is built without a topic.
	ErrMissingTopic = errors.New("notify: SNS topic ARN is empty")
)
