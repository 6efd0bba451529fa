package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemindersDelivered counts per-recipient deliveries by result (success|failure).
	RemindersDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remind_reminders_delivered_total",
			Help: "Total number of reminder deliveries per recipient",
		},
		[]string{"channel", "result"},
	)

	// SchedulerTicks counts dispatcher ticks by result (ok|error).
	SchedulerTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remind_scheduler_ticks_total",
			Help: "Total number of reminder scheduler ticks",
		},
		[]string{"result"},
	)

	// SchedulerTickDuration measures how long a tick takes end to end.
	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "remind_scheduler_tick_duration_seconds",
			Help:    "Duration of reminder scheduler ticks",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DialogueEvents counts handled chat events by kind and outcome (ok|validation|error).
	DialogueEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remind_dialogue_events_total",
			Help: "Total number of chat events handled by the dialogue engine",
		},
		[]string{"kind", "outcome"},
	)

	// ActiveSessions tracks dialogue sessions held in memory.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "remind_active_sessions",
			Help: "Number of dialogue sessions held in memory",
		},
	)

	// ChatConnections tracks open websocket chat connections.
	ChatConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "remind_chat_connections",
			Help: "Number of open chat gateway connections",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remind_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
