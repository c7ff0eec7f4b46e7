package ai

import (
	"fmt"
	"strings"

	"storyframe-server/internal/config"

	"go.uber.org/zap"
)

// NewTextGenerator создает текстовый клиент по AI_CLIENT_TYPE.
func NewTextGenerator(cfg *config.Config, logger *zap.Logger) (TextGenerator, error) {
	switch strings.ToLower(cfg.AIClientType) {
	case "openai":
		logger.Info("Using OpenAI-compatible text client",
			zap.String("baseURL", cfg.AIBaseURL), zap.String("model", cfg.AIModel), zap.Duration("timeout", cfg.AITimeout))
		return newOpenAIClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, cfg.AITimeout, logger), nil
	case "ollama":
		logger.Info("Using Ollama text client",
			zap.String("baseURL", cfg.AIBaseURL), zap.String("model", cfg.AIModel), zap.Duration("timeout", cfg.AITimeout))
		client, err := newOllamaClient(cfg.AIBaseURL, cfg.AIModel, cfg.AITimeout, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("неизвестный тип AI клиента: '%s'", cfg.AIClientType)
	}
}
