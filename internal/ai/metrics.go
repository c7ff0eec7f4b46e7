package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyframe_ai_requests_total",
			Help: "Total number of requests to the AI backends.",
		},
		[]string{"backend", "model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyframe_ai_request_duration_seconds",
			Help:    "Histogram of AI request durations.",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320},
		},
		[]string{"backend", "model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyframe_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyframe_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

// Значения метки status.
const (
	statusSuccess       = "success"
	statusError         = "error"
	statusEmptyResponse = "error_empty_response"
	statusRateLimited   = "rate_limited"
	statusPayment       = "payment_required"
)

func statusLabel(err error) string {
	switch statusCodeOf(err) {
	case 429:
		return statusRateLimited
	case 402:
		return statusPayment
	default:
		return statusError
	}
}

func observeUsage(model string, u Usage) {
	if u.TotalTokens <= 0 {
		return
	}
	aiPromptTokens.WithLabelValues(model).Observe(float64(u.PromptTokens))
	aiCompletionTokens.WithLabelValues(model).Observe(float64(u.CompletionTokens))
}
