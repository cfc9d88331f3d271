package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overheat_cycles_total",
			Help: "Total number of evaluation cycles run",
		},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "overheat_cycle_duration_seconds",
			Help:    "Evaluation cycle duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overheat_fetch_failures_total",
			Help: "Total number of failed signal fetches",
		},
		[]string{"source", "metric"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overheat_notifications_total",
			Help: "Total number of notification deliveries by channel and status",
		},
		[]string{"channel", "status"}, // status: ok, failed
	)

	Score = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "overheat_score",
			Help: "Latest overheat score by asset",
		},
		[]string{"asset"},
	)
)
