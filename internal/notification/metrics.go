package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emailsQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_emails_queued_total",
			Help: "Total number of notifications queued",
		},
		[]string{"email_type"},
	)

	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_emails_sent_total",
			Help: "Total number of notifications delivered to the provider",
		},
		[]string{"email_type"},
	)

	emailsRetried = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_emails_retried_total",
			Help: "Total number of attempts rescheduled for retry",
		},
		[]string{"email_type"},
	)

	emailsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_emails_failed_total",
			Help: "Total number of notifications that reached failed state",
		},
		[]string{"email_type", "reason"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_webhook_events_total",
			Help: "Total number of delivery-provider webhook events received",
		},
		[]string{"kind"},
	)

	processingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "notifier_processing_duration_seconds",
			Help: "Duration of one notification processing attempt in seconds",
		},
	)
)
