package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storyframe-server/internal/models"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const backendOpenAI = "openai"

// openAIClient реализует TextGenerator поверх OpenAI-совместимого шлюза.
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

var _ TextGenerator = (*openAIClient)(nil)

func newOpenAIClient(apiKey, baseURL, model string, timeout time.Duration, logger *zap.Logger) *openAIClient {
	openaiConfig := openaigo.DefaultConfig(apiKey)
	if baseURL != "" {
		openaiConfig.BaseURL = baseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &openAIClient{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  model,
		logger: logger.Named("OpenAIClient"),
	}
}

// CompleteText выполняет один запрос chat completion.
func (c *openAIClient) CompleteText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	log := c.logger.With(zap.String("model", c.model), zap.String("userID", req.UserID))

	if strings.TrimSpace(req.SystemPrompt) == "" && len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: пустой запрос", models.ErrUpstreamFailure)
	}

	messages := make([]openaigo.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: m,
		})
	}

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32Val(req.Temperature),
		MaxTokens:   intVal(req.MaxTokens),
	})
	duration := time.Since(startTime)
	aiRequestDuration.WithLabelValues(backendOpenAI, c.model).Observe(duration.Seconds())

	if err != nil {
		log.Warn("AI gateway request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.WithLabelValues(backendOpenAI, c.model, statusLabel(err)).Inc()
		return nil, classifyError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		log.Warn("AI gateway returned empty response", zap.Duration("duration", duration))
		aiRequestsTotal.WithLabelValues(backendOpenAI, c.model, statusEmptyResponse).Inc()
		return nil, fmt.Errorf("%w: получен пустой ответ", models.ErrUpstreamFailure)
	}

	content := resp.Choices[0].Message.Content
	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(c.model, req, content)
	}

	aiRequestsTotal.WithLabelValues(backendOpenAI, c.model, statusSuccess).Inc()
	observeUsage(c.model, usage)

	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = c.model
	}

	log.Debug("AI gateway response received",
		zap.Duration("duration", duration),
		zap.Int("length", len(content)),
		zap.Int("totalTokens", usage.TotalTokens),
		zap.Bool("estimated", usage.Estimated),
	)

	return &TextResponse{Content: content, Model: modelUsed, Usage: usage}, nil
}
