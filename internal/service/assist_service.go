package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/models"
	"storyframe-server/internal/prompt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	assistTemperature = 0.7
	assistMaxTokens   = 800
)

// AssistService подсказывает автору, как развить текущую сцену.
type AssistService interface {
	Suggest(ctx context.Context, userID uuid.UUID, req models.AssistRequest) (string, error)
}

type assistService struct {
	text   ai.TextGenerator
	logger *zap.Logger
}

func NewAssistService(text ai.TextGenerator, logger *zap.Logger) AssistService {
	return &assistService{text: text, logger: logger.Named("AssistService")}
}

func (s *assistService) Suggest(ctx context.Context, userID uuid.UUID, req models.AssistRequest) (string, error) {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return "", fmt.Errorf("%w: userPrompt is required", models.ErrInvalidInput)
	}

	resp, err := s.text.CompleteText(ctx, ai.TextRequest{
		UserID:       userID.String(),
		SystemPrompt: prompt.AssistSystem,
		Messages:     assistMessages(req),
		Temperature:  floatPtr(assistTemperature),
		MaxTokens:    intPtr(assistMaxTokens),
	})
	if err != nil {
		s.logger.Error("Assist suggestion failed", zap.String("userID", userID.String()), zap.Error(err))
		return "", err
	}
	return resp.Content, nil
}

// assistMessages: контекст предыдущих кадров, подсказка бита и запрос автора отдельными сообщениями.
func assistMessages(req models.AssistRequest) []string {
	messages := make([]string, 0, 3)
	if len(req.PreviousFrames) > 0 {
		lines := make([]string, len(req.PreviousFrames))
		for i, f := range req.PreviousFrames {
			lines[i] = prompt.Render(prompt.AssistFrameLine, map[string]string{
				"n":       strconv.Itoa(i + 1),
				"content": f.NarrativeContent,
			})
		}
		messages = append(messages, prompt.AssistStorySoFarHeader+strings.Join(lines, "\n\n"))
	}
	if req.CurrentBeat != nil {
		messages = append(messages, prompt.Render(prompt.AssistBeatGuidance, map[string]string{
			"beatName": req.CurrentBeat.BeatName,
			"guidance": req.CurrentBeat.GuidanceText,
		}))
	}
	messages = append(messages, prompt.Render(prompt.AssistWriterPrompt, map[string]string{"prompt": req.UserPrompt}))
	return messages
}
