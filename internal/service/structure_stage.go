package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/models"
	"storyframe-server/internal/prompt"
	"storyframe-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const structureTemperature = 0.8

// structureStage получает от модели структуру истории: название, описание и список битов.
type structureStage struct {
	text   ai.TextGenerator
	model  string
	db     repository.DBTX
	logs   repository.GenerationLogRepository
	logger *zap.Logger
}

func newStructureStage(text ai.TextGenerator, model string, db repository.DBTX, logs repository.GenerationLogRepository, logger *zap.Logger) *structureStage {
	return &structureStage{
		text:   text,
		model:  model,
		db:     db,
		logs:   logs,
		logger: logger.Named("StructureStage"),
	}
}

// Run выполняет один запрос к модели и строго разбирает ответ.
// Ошибки апстрима возвращаются как есть, ошибки разбора - models.ErrMalformedModelOutput.
func (s *structureStage) Run(ctx context.Context, userID uuid.UUID, brief models.StoryBrief, beatCount int) (*models.StoryStructure, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.Int("beatCount", beatCount))

	userPrompt := prompt.Render(prompt.StoryStructure, map[string]string{
		"theme":          brief.Theme,
		"targetAudience": brief.TargetAudience,
		"framework":      brief.Framework,
		"storyLength":    strconv.Itoa(beatCount),
	})

	resp, err := s.text.CompleteText(ctx, ai.TextRequest{
		UserID:       userID.String(),
		SystemPrompt: prompt.StoryStructureSystem,
		Messages:     []string{userPrompt},
		Temperature:  floatPtr(structureTemperature),
	})
	if err != nil {
		log.Error("Story structure generation failed", zap.Error(err))
		return nil, err
	}

	structure, err := ParseStoryStructure(resp.Content, beatCount)
	if err != nil {
		log.Warn("Failed to parse story structure", zap.Error(err), zap.String("preview", truncateRunes(resp.Content, promptPreviewLimit)))
		return nil, err
	}

	entry := &models.GenerationLogEntry{
		UserID:        userID,
		OperationType: models.OperationStoryStructure,
		ModelUsed:     modelOr(resp.Model, s.model),
		PromptPreview: truncateRunes(brief.Theme, promptPreviewLimit),
	}
	if err := s.logs.Insert(ctx, s.db, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistenceFailure, err)
	}

	log.Info("Story structure generated", zap.String("title", structure.StoryTitle), zap.Int("beats", len(structure.Beats)))
	return structure, nil
}

type rawStoryStructure struct {
	StoryTitle       *string    `json:"story_title"`
	StoryDescription *string    `json:"story_description"`
	Beats            *[]rawBeat `json:"beats"`
}

type rawBeat struct {
	BeatNumber      *int    `json:"beat_number"`
	Title           *string `json:"title"`
	NarrativeText   *string `json:"narrative_text"`
	MediaType       *string `json:"media_type"`
	DurationSeconds *int    `json:"duration_seconds"`
	VisualConcept   *string `json:"visual_concept"`
}

// ParseStoryStructure разбирает ответ модели этапа структуры.
// Снимается один слой ```json```; все обязательные поля проверяются на наличие.
// Битов меньше beatCount - ошибка, лишние отбрасываются. Номера битов пересчитываются с 1.
// Для VIDEO длительность вне {4, 6, 8} заменяется на 6, для IMAGE всегда 0.
func ParseStoryStructure(content string, beatCount int) (*models.StoryStructure, error) {
	var raw rawStoryStructure
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", models.ErrMalformedModelOutput, err)
	}

	switch {
	case raw.StoryTitle == nil || strings.TrimSpace(*raw.StoryTitle) == "":
		return nil, fmt.Errorf("%w: story_title is missing", models.ErrMalformedModelOutput)
	case raw.StoryDescription == nil:
		return nil, fmt.Errorf("%w: story_description is missing", models.ErrMalformedModelOutput)
	case raw.Beats == nil || len(*raw.Beats) == 0:
		return nil, fmt.Errorf("%w: beats are missing", models.ErrMalformedModelOutput)
	}

	rawBeats := *raw.Beats
	if beatCount > 0 {
		if len(rawBeats) < beatCount {
			return nil, fmt.Errorf("%w: expected %d beats, got %d", models.ErrMalformedModelOutput, beatCount, len(rawBeats))
		}
		rawBeats = rawBeats[:beatCount]
	}

	beats := make([]models.Beat, 0, len(rawBeats))
	for i, rb := range rawBeats {
		beat, err := rb.toBeat(i + 1)
		if err != nil {
			return nil, err
		}
		beats = append(beats, beat)
	}

	return &models.StoryStructure{
		StoryTitle:       strings.TrimSpace(*raw.StoryTitle),
		StoryDescription: strings.TrimSpace(*raw.StoryDescription),
		Beats:            beats,
	}, nil
}

func (rb rawBeat) toBeat(number int) (models.Beat, error) {
	missing := func(field string) error {
		return fmt.Errorf("%w: beat %d: %s is missing", models.ErrMalformedModelOutput, number, field)
	}
	if rb.Title == nil {
		return models.Beat{}, missing("title")
	}
	if rb.NarrativeText == nil {
		return models.Beat{}, missing("narrative_text")
	}
	if rb.MediaType == nil {
		return models.Beat{}, missing("media_type")
	}
	if rb.VisualConcept == nil {
		return models.Beat{}, missing("visual_concept")
	}

	beat := models.Beat{
		BeatNumber:    number,
		Title:         *rb.Title,
		NarrativeText: *rb.NarrativeText,
		MediaType:     strings.ToUpper(strings.TrimSpace(*rb.MediaType)),
		VisualConcept: *rb.VisualConcept,
	}
	switch beat.MediaType {
	case models.BeatMediaImage:
		beat.DurationSeconds = 0
	case models.BeatMediaVideo:
		beat.DurationSeconds = defaultVideoDuration
		if rb.DurationSeconds != nil && validVideoDuration(*rb.DurationSeconds) {
			beat.DurationSeconds = *rb.DurationSeconds
		}
	default:
		return models.Beat{}, fmt.Errorf("%w: beat %d: unknown media_type %q", models.ErrMalformedModelOutput, number, *rb.MediaType)
	}
	return beat, nil
}

func modelOr(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}
