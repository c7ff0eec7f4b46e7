package models

// ErrorResponse - стандартная структура ответа об ошибке.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Машинные коды ошибок для поля ErrorResponse.Code.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeTokenInvalid    = "TOKEN_INVALID"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "ACTIVE_GENERATION"
	ErrCodeQuotaExceeded   = "QUOTA_EXCEEDED"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodePaymentRequired = "PAYMENT_REQUIRED"
	ErrCodeMalformedOutput = "MALFORMED_MODEL_OUTPUT"
	ErrCodeUpstream        = "UPSTREAM_FAILURE"
	ErrCodeTimeout         = "GENERATION_TIMED_OUT"
	ErrCodeRegeneration    = "REGENERATION_FAILED"
	ErrCodePersistence     = "PERSISTENCE_FAILURE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)
