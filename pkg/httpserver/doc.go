// Package httpserver wraps net/http.Server with graceful shutdown, signal
// handling and env-driven configuration for the notifier's HTTP surface.
package httpserver
