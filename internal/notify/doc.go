// Package notify delivers best-effort alerts when the database is unreachable.
//
// Alerts go to an SNS topic when SNS_TOPIC_ARN is set, optionally to Sentry,
// and always to the process log. Delivery failures never stop the caller:
// Dispatch logs them and returns.
package notify
