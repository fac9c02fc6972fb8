// Package pg manages the PostgreSQL connection pool used as the notification
// queue store: retried connect, goose migrations, health checks and error
// classification helpers.
package pg
