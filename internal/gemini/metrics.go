package gemini

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	collaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_collaborator_calls_total",
			Help: "Total number of generative AI collaborator calls",
		},
		[]string{"op", "status"},
	)

	collaboratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_collaborator_duration_seconds",
			Help:    "Generative AI collaborator call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"op"},
	)
)

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
