// Package application wires the connected database, alert sinks and health
// API into an HTTP server, keeping the main package focused on CLI parsing
// and process lifecycle.
package application
