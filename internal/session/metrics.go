package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "web_bff",
		Name:      "sessions_active",
		Help:      "Browser sessions currently held in memory",
	})

	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "web_bff",
		Name:      "sessions_created_total",
		Help:      "Browser sessions created",
	})

	sessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "web_bff",
		Name:      "sessions_evicted_total",
		Help:      "Browser sessions dropped after the idle TTL",
	})

	sessionsRotated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "web_bff",
		Name:      "sessions_rotated_total",
		Help:      "Browser sessions moved to a new id after sign-in",
	})
)
