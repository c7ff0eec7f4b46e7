package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/models"
	"storyframe-server/internal/prompt"
	"storyframe-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const visualTemperature = 0.7

// visualStage генерирует визуальный промпт для каждого бита по очереди.
// Ошибка модели для отдельного бита не прерывает этап: подставляется запасной промпт.
type visualStage struct {
	text    ai.TextGenerator
	model   string
	db      repository.DBTX
	logs    repository.GenerationLogRepository
	limiter *rate.Limiter
	logger  *zap.Logger
}

// minInterval задает паузу между запросами к модели; 0 - без ограничения.
func newVisualStage(text ai.TextGenerator, model string, db repository.DBTX, logs repository.GenerationLogRepository, minInterval time.Duration, logger *zap.Logger) *visualStage {
	var limiter *rate.Limiter
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &visualStage{
		text:    text,
		model:   model,
		db:      db,
		logs:    logs,
		limiter: limiter,
		logger:  logger.Named("VisualStage"),
	}
}

// Run возвращает по одному VisualPrompt на бит в порядке битов.
// Ошибкой завершается только при отмене контекста или сбое записи в журнал.
func (s *visualStage) Run(ctx context.Context, userID uuid.UUID, structure *models.StoryStructure, brief models.StoryBrief) ([]models.VisualPrompt, error) {
	log := s.logger.With(zap.String("userID", userID.String()))
	visualStyle := brief.VisualStyle
	if strings.TrimSpace(visualStyle) == "" {
		visualStyle = prompt.DefaultVisualStyle
	}

	beats := structure.Beats
	total := strconv.Itoa(len(beats))
	results := make([]models.VisualPrompt, len(beats))
	model := s.model

	for i, beat := range beats {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		previous := prompt.FirstBeatSentinel
		if i > 0 {
			previous = beats[i-1].VisualConcept
		}
		next := prompt.FinalBeatSentinel
		if i < len(beats)-1 {
			next = beats[i+1].VisualConcept
		}

		userPrompt := prompt.Render(prompt.VisualPrompt, map[string]string{
			"storyTitle":       structure.StoryTitle,
			"storyDescription": structure.StoryDescription,
			"visualStyle":      visualStyle,
			"targetAudience":   brief.TargetAudience,
			"beatNumber":       strconv.Itoa(i + 1),
			"totalBeats":       total,
			"beatTitle":        beat.Title,
			"narrativeText":    beat.NarrativeText,
			"mediaType":        beat.MediaType,
			"visualConcept":    beat.VisualConcept,
			"previousBeat":     previous,
			"nextBeat":         next,
		})

		resp, err := s.text.CompleteText(ctx, ai.TextRequest{
			UserID:       userID.String(),
			SystemPrompt: prompt.VisualPromptSystem,
			Messages:     []string{userPrompt},
			Temperature:  floatPtr(visualTemperature),
		})
		if err == nil && strings.TrimSpace(resp.Content) == "" {
			err = fmt.Errorf("%w: empty visual prompt", models.ErrUpstreamFailure)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn("Visual prompt generation failed, using fallback", zap.Int("beat", i+1), zap.Error(err))
			degradedBeatsTotal.Inc()
			results[i] = models.VisualPrompt{Content: FallbackVisualPrompt(i+1, beat.VisualConcept), Degraded: true}
			continue
		}

		model = modelOr(resp.Model, model)
		results[i] = models.VisualPrompt{Content: resp.Content}
	}

	entry := &models.GenerationLogEntry{
		UserID:        userID,
		OperationType: models.OperationVisualPrompts,
		ModelUsed:     model,
		PromptPreview: fmt.Sprintf("%d beats generated", len(beats)),
	}
	if err := s.logs.Insert(ctx, s.db, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistenceFailure, err)
	}
	return results, nil
}

// FallbackVisualPrompt - запасной промпт "Scene {n}: {visual_concept}".
func FallbackVisualPrompt(beatNumber int, visualConcept string) string {
	return prompt.Render(prompt.FallbackVisualPrompt, map[string]string{
		"n":             strconv.Itoa(beatNumber),
		"visualConcept": visualConcept,
	})
}
