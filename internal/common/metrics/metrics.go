// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_catalog_loads_total",
			Help: "Total number of catalog loads by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_recommendation_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "menu_recommendation_duration_seconds",
			Help: "Duration of recommendation requests in seconds",
		},
		[]string{"outcome"},
	)

	RecommendationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "menu_recommendations_in_flight",
			Help: "Number of recommendation requests awaiting a response",
		},
	)

	RecommendationCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_recommendation_cache_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"},
	)

	VoiceCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_voice_commands_total",
			Help: "Total number of voice transcripts by matched rule",
		},
		[]string{"rule"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_notifications_total",
			Help: "Total number of notifications shown by kind",
		},
		[]string{"kind"},
	)
)

// Outcome labels shared by the recommendation counters.
const (
	OutcomeSuccess  = "success"
	OutcomeEmpty    = "empty"
	OutcomeFailure  = "failure"
	OutcomeStale    = "stale"
	OutcomeRejected = "rejected"
)
