// Package logger builds configured slog.Logger instances with env-driven
// format and level selection plus small attribute helpers shared across
// the notifier services.
package logger
