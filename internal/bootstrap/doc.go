// Package bootstrap runs the one connection attempt the application starts
// with. A failure is logged in full, sent to the configured alert sinks, and
// returned as a ConnectionError whose user-facing text hides details in
// production.
package bootstrap
