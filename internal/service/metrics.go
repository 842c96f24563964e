package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoundsCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_rounds_committed_total",
			Help: "Rounds committed to a session history",
		},
		[]string{"outcome", "mode"},
	)
	ActionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_actions_rejected_total",
			Help: "Play/reset requests ignored because a round was animating",
		},
		[]string{"action"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rps_sessions_active",
			Help: "Sessions currently held in memory",
		},
	)
)

func init() {
	prometheus.MustRegister(RoundsCommitted)
	prometheus.MustRegister(ActionsRejected)
	prometheus.MustRegister(ActiveSessions)
}
