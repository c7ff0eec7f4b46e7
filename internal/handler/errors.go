package handler

import (
	"errors"
	"net/http"

	"storyframe-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var errorResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storyframe_http_error_responses_total",
	Help: "Error responses by machine error code.",
}, []string{"code"})

// handleServiceError сопоставляет ошибку сервиса со статусом и кодом ответа.
// Порядок веток важен: ошибки апстрима (429/402) оборачиваются в ErrRegenerationFailed.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	var status int
	var resp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
		resp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrTokenExpired):
		status = http.StatusUnauthorized
		resp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token expired"}
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed):
		status = http.StatusUnauthorized
		resp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
		resp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "You do not have access to this resource"}
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
		resp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Resource not found"}
	case errors.Is(err, models.ErrUserHasActiveGeneration):
		status = http.StatusConflict
		resp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: err.Error()}
	case errors.Is(err, models.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
		resp = models.ErrorResponse{Code: models.ErrCodeQuotaExceeded, Message: "Daily generation limit reached. Please try again tomorrow."}
	case errors.Is(err, models.ErrRateLimited):
		status = http.StatusTooManyRequests
		resp = models.ErrorResponse{Code: models.ErrCodeRateLimited, Message: models.ErrRateLimited.Error()}
	case errors.Is(err, models.ErrPaymentRequired):
		status = http.StatusPaymentRequired
		resp = models.ErrorResponse{Code: models.ErrCodePaymentRequired, Message: models.ErrPaymentRequired.Error()}
	case errors.Is(err, models.ErrRegenerationFailed):
		status = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodeRegeneration, Message: "Failed to regenerate beat"}
	case errors.Is(err, models.ErrPersistenceFailure):
		status = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodePersistence, Message: "Failed to save generated content"}
	case errors.Is(err, models.ErrMalformedModelOutput):
		status = http.StatusBadGateway
		resp = models.ErrorResponse{Code: models.ErrCodeMalformedOutput, Message: "The model returned an invalid response"}
	case errors.Is(err, models.ErrUpstreamFailure):
		status = http.StatusBadGateway
		resp = models.ErrorResponse{Code: models.ErrCodeUpstream, Message: "Generation service failed"}
	case errors.Is(err, models.ErrGenerationTimedOut):
		status = http.StatusGatewayTimeout
		resp = models.ErrorResponse{Code: models.ErrCodeTimeout, Message: "Generation timed out"}
	default:
		status = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "Internal server error"}
	}

	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", resp.Code),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Warn("Request rejected", fields...)
	}

	errorResponsesTotal.WithLabelValues(resp.Code).Inc()
	c.AbortWithStatusJSON(status, resp)
}
