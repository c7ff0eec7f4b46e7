package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storyframe-server/internal/auth"
	"storyframe-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware проверяет bearer-токен и кладет UserID в gin.Context и в контекст запроса.
func AuthMiddleware(verifier auth.TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing", zap.String("path", c.Request.URL.Path))
			handleServiceError(c, models.ErrUnauthorized, log)
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			handleServiceError(c, models.ErrTokenMalformed, log)
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			if !errors.Is(err, models.ErrTokenExpired) && !errors.Is(err, models.ErrTokenInvalid) && !errors.Is(err, models.ErrTokenMalformed) {
				log.Error("Unexpected token verification error", zap.Error(err))
			}
			handleServiceError(c, err, log)
			return
		}

		c.Set(models.GinUserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(models.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// userIDFrom достает UserID, положенный AuthMiddleware.
func userIDFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(models.GinUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ZapLoggingMiddleware логирует запросы; /health и /metrics пропускаются.
func ZapLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		if c.Request.URL.RawQuery != "" {
			path += "?" + c.Request.URL.RawQuery
		}
		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", requestID),
		}

		for _, ginErr := range c.Errors.ByType(gin.ErrorTypeAny) {
			logger.Error("Request error", append(fields, zap.Error(ginErr.Err))...)
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Server error", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Client error", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}
