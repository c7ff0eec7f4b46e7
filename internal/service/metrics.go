package service

import (
	"errors"

	"storyframe-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storyGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyframe_story_generations_total",
			Help: "Total number of story generation requests by outcome.",
		},
		[]string{"status"},
	)
	degradedBeatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storyframe_degraded_beats_total",
			Help: "Number of beats that fell back to the templated visual prompt.",
		},
	)
	beatRegenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyframe_beat_regenerations_total",
			Help: "Total number of beat regeneration requests by outcome.",
		},
		[]string{"status"},
	)
	videoJobAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storyframe_video_poll_attempts",
			Help:    "Number of polling attempts per finished video job.",
			Buckets: prometheus.LinearBuckets(5, 5, 12),
		},
	)
)

// Значения метки status.
const (
	outcomeSuccess     = "success"
	outcomeInvalid     = "invalid_input"
	outcomeBusy        = "active_generation"
	outcomeQuota       = "quota_exceeded"
	outcomeMalformed   = "malformed_output"
	outcomeUpstream    = "upstream_error"
	outcomePersistence = "persistence_error"
	outcomeForbidden   = "forbidden"
	outcomeNotFound    = "not_found"
	outcomeError       = "error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, models.ErrInvalidInput):
		return outcomeInvalid
	case errors.Is(err, models.ErrUserHasActiveGeneration):
		return outcomeBusy
	case errors.Is(err, models.ErrQuotaExceeded):
		return outcomeQuota
	case errors.Is(err, models.ErrMalformedModelOutput):
		return outcomeMalformed
	case errors.Is(err, models.ErrPersistenceFailure):
		return outcomePersistence
	case errors.Is(err, models.ErrForbidden):
		return outcomeForbidden
	case errors.Is(err, models.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, models.ErrRateLimited),
		errors.Is(err, models.ErrPaymentRequired),
		errors.Is(err, models.ErrUpstreamFailure),
		errors.Is(err, models.ErrRegenerationFailed):
		return outcomeUpstream
	default:
		return outcomeError
	}
}
