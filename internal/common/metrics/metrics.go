// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepsRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_sweeps_total",
			Help: "Total number of reminder sweeps, by trigger",
		},
		[]string{"trigger"},
	)

	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminder emails sent, by channel",
		},
		[]string{"channel"},
	)

	ReminderSendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_send_failures_total",
			Help: "Total number of failed reminder sends, by channel",
		},
		[]string{"channel"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "reminder_sweep_duration_seconds",
			Help: "Duration of reminder sweeps in seconds",
		},
	)

	DigestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_emails_sent_total",
			Help: "Total number of digest emails sent",
		},
	)
)
