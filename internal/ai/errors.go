package ai

import (
	"errors"
	"fmt"
	"net/http"

	"storyframe-server/internal/models"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// classifyError сопоставляет ошибку провайдера с типизированной ошибкой приложения.
// Исходная ошибка остается в цепочке.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	switch statusCodeOf(err) {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", models.ErrRateLimited, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %w", models.ErrPaymentRequired, err)
	default:
		return fmt.Errorf("%w: %w", models.ErrUpstreamFailure, err)
	}
}

// statusCodeOf достает HTTP статус из ошибок go-openai, ollama и genai. 0, если статуса нет.
func statusCodeOf(err error) int {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) {
		return ollamaErr.StatusCode
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	var genaiErrPtr *genai.APIError
	if errors.As(err, &genaiErrPtr) {
		return genaiErrPtr.Code
	}
	return 0
}
