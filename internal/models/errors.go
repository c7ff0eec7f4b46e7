package models

import "errors"

// Ошибки уровня приложения. Обработчики HTTP сопоставляют их со статусами через errors.Is.
var (
	// Common Resource/DB Errors
	ErrNotFound           = errors.New("resource not found")
	ErrPersistenceFailure = errors.New("persistence failure")

	// Auth Errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Request Errors
	ErrInvalidInput = errors.New("invalid input data")

	// Generation Errors
	ErrQuotaExceeded           = errors.New("daily generation quota exceeded")
	ErrUserHasActiveGeneration = errors.New("user already has an active generation task")
	ErrMalformedModelOutput    = errors.New("model returned malformed output")
	ErrRegenerationFailed      = errors.New("beat regeneration failed")
	ErrGenerationTimedOut      = errors.New("generation timed out")

	// Upstream (AI gateway) Errors
	ErrRateLimited     = errors.New("rate limit exceeded, please try again later")
	ErrPaymentRequired = errors.New("payment required, please add credits")
	ErrUpstreamFailure = errors.New("upstream generation service failed")
)
