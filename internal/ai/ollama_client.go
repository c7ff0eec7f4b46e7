package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storyframe-server/internal/models"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const backendOllama = "ollama"

// ollamaClient реализует TextGenerator через нативный API Ollama.
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ TextGenerator = (*ollamaClient)(nil)

func newOllamaClient(baseURL, model string, timeout time.Duration, logger *zap.Logger) (*ollamaClient, error) {
	// api.NewClient требует URL без суффикса /v1
	ollamaBaseURL := strings.TrimSuffix(baseURL, "/v1")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", ollamaBaseURL, err)
	}

	return &ollamaClient{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: timeout}),
		model:   model,
		timeout: timeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

// CompleteText выполняет один запрос /api/chat без стриминга.
func (c *ollamaClient) CompleteText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	log := c.logger.With(zap.String("model", c.model), zap.String("userID", req.UserID))

	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: "user", Content: m})
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: пустой запрос", models.ErrUpstreamFailure)
	}

	options := map[string]interface{}{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		options["num_predict"] = *req.MaxTokens
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	requestCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, chatReq, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)
	aiRequestDuration.WithLabelValues(backendOllama, c.model).Observe(duration.Seconds())

	if err != nil {
		log.Warn("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.WithLabelValues(backendOllama, c.model, statusLabel(err)).Inc()
		return nil, classifyError(err)
	}

	if strings.TrimSpace(resp.Message.Content) == "" {
		log.Warn("Ollama returned empty response", zap.Duration("duration", duration))
		aiRequestsTotal.WithLabelValues(backendOllama, c.model, statusEmptyResponse).Inc()
		return nil, fmt.Errorf("%w: получен пустой ответ", models.ErrUpstreamFailure)
	}

	usage := Usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(c.model, req, resp.Message.Content)
	}

	aiRequestsTotal.WithLabelValues(backendOllama, c.model, statusSuccess).Inc()
	observeUsage(c.model, usage)

	log.Debug("Ollama response received", zap.Duration("duration", duration), zap.Int("totalTokens", usage.TotalTokens))

	return &TextResponse{Content: resp.Message.Content, Model: c.model, Usage: usage}, nil
}
