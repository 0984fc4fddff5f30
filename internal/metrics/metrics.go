package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WeatherAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skycast_openweather_api_calls_total",
			Help: "Total OpenWeatherMap API calls",
		},
		[]string{"endpoint", "status"},
	)

	WeatherAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skycast_openweather_api_latency_seconds",
			Help:    "OpenWeatherMap API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AdvisoryCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skycast_advisory_calls_total",
			Help: "Total LLM advisory and AI-geocoding calls",
		},
		[]string{"kind", "status"},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skycast_dashboard_transitions_total",
			Help: "Dashboard state transitions by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)
