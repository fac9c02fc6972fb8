package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/proofr/notifier/pkg/httpserver"
)

// RouterDeps aggregates everything the router needs.
type RouterDeps struct {
	Notifications *NotificationsHandler
	Webhook       *WebhookHandler
	Trigger       *TriggerHandler

	// DevEmail is routed only when non-nil; production wiring leaves it out.
	DevEmail *DevEmailHandler

	// Healthchecks report readiness of the service's dependencies.
	Healthchecks []func(context.Context) error

	Log *slog.Logger
}

// NewRouter assembles the service's HTTP surface.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", httpserver.HealthCheckHandler(context.Background(), log, deps.Healthchecks...))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/notifications", deps.Notifications.Enqueue)
		r.Get("/notifications", deps.Notifications.List)

		r.Post("/emails/webhook", deps.Webhook.Receive)
		r.Get("/emails/webhook", deps.Webhook.Describe)

		r.Get("/cron/emails", deps.Trigger.Trigger)
		r.Post("/cron/emails", deps.Trigger.Trigger)

		if deps.DevEmail != nil {
			r.Post("/emails/send", deps.DevEmail.Send)
		}
	})

	return r
}
