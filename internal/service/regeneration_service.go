package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/database"
	"storyframe-server/internal/messaging"
	"storyframe-server/internal/models"
	"storyframe-server/internal/prompt"
	"storyframe-server/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BeatRegenerator перегенерирует визуальный промпт одного кадра.
type BeatRegenerator interface {
	RegenerateBeat(ctx context.Context, userID, frameID uuid.UUID, mods models.BeatModifications) (string, error)
}

type beatRegenerator struct {
	db        repository.DBTX
	tx        database.Transactor
	repos     StoryRepositories
	text      ai.TextGenerator
	model     string
	publisher messaging.EventPublisher
	now       func() time.Time
	logger    *zap.Logger
}

func NewBeatRegenerator(
	db repository.DBTX,
	tx database.Transactor,
	repos StoryRepositories,
	text ai.TextGenerator,
	publisher messaging.EventPublisher,
	model string,
	logger *zap.Logger,
) BeatRegenerator {
	return &beatRegenerator{
		db:        db,
		tx:        tx,
		repos:     repos,
		text:      text,
		model:     model,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.Named("BeatRegenerator"),
	}
}

// RegenerateBeat проверяет владельца, строит промпт с соседними кадрами и сохраняет результат.
// Ошибка модели не заменяется запасным текстом, а возвращается как models.ErrRegenerationFailed.
func (s *beatRegenerator) RegenerateBeat(ctx context.Context, userID, frameID uuid.UUID, mods models.BeatModifications) (newPrompt string, err error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("frameID", frameID.String()))
	defer func() { beatRegenerationsTotal.WithLabelValues(outcomeOf(err)).Inc() }()

	fc, err := s.repos.Frames.GetWithContext(ctx, s.db, frameID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("ошибка получения кадра: %w", err)
	}
	if fc.Narrative.UserID != userID {
		log.Warn("User does not own the frame", zap.String("ownerID", fc.Narrative.UserID.String()))
		return "", models.ErrForbidden
	}

	siblings, err := s.repos.Frames.ListByChapter(ctx, s.db, fc.Chapter.ID)
	if err != nil {
		return "", fmt.Errorf("ошибка получения соседних кадров: %w", err)
	}
	previous, next := neighborFrames(siblings, frameID)

	narrativeText := stringOr(mods.Narrative, fc.Frame.NarrativeContent)
	userPrompt := buildRegenerationPrompt(fc, narrativeText, mods.AdditionalNotes, previous, next)

	resp, err := s.text.CompleteText(ctx, ai.TextRequest{
		UserID:       userID.String(),
		SystemPrompt: prompt.RegenerateBeatSystem,
		Messages:     []string{userPrompt},
		Temperature:  floatPtr(visualTemperature),
	})
	if err != nil {
		log.Error("Beat regeneration failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", models.ErrRegenerationFailed, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: %w: empty response", models.ErrRegenerationFailed, models.ErrUpstreamFailure)
	}
	newPrompt = resp.Content

	entry := models.PromptHistoryEntry{Timestamp: s.now().UTC(), Prompt: newPrompt}
	if mods.Narrative != nil || mods.AdditionalNotes != nil {
		modsCopy := mods
		entry.Modifications = &modsCopy
	}
	narrativeID := fc.Narrative.ID
	logEntry := &models.GenerationLogEntry{
		UserID:        userID,
		NarrativeID:   &narrativeID,
		OperationType: models.OperationRegenerateBeat,
		ModelUsed:     modelOr(resp.Model, s.model),
		PromptPreview: truncateRunes(narrativeText, promptPreviewLimit),
	}

	err = s.tx.ExecuteInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.repos.Frames.UpdateRegenerated(ctx, tx, frameID, newPrompt, narrativeText, entry); err != nil {
			return err
		}
		return s.repos.Logs.Insert(ctx, tx, logEntry)
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", err
		}
		log.Error("Failed to save regenerated beat", zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrPersistenceFailure, err)
	}

	event := messaging.NewStoryEvent(messaging.EventBeatRegenerated, userID, narrativeID)
	event.FrameID = &frameID
	publishEvent(ctx, s.publisher, event, log)

	log.Info("Beat regenerated")
	return newPrompt, nil
}

// neighborFrames ищет соседей по позиции в упорядоченном списке, а не по id.
func neighborFrames(ordered []models.Frame, frameID uuid.UUID) (previous, next *models.Frame) {
	for i := range ordered {
		if ordered[i].ID != frameID {
			continue
		}
		if i > 0 {
			previous = &ordered[i-1]
		}
		if i < len(ordered)-1 {
			next = &ordered[i+1]
		}
		return previous, next
	}
	return nil, nil
}

func buildRegenerationPrompt(fc *models.FrameContext, narrativeText string, notes *string, previous, next *models.Frame) string {
	frame := fc.Frame
	beatTitle := frame.BeatTitle
	if beatTitle == "" {
		beatTitle = "Frame " + strconv.Itoa(frame.OrderIndex+1)
	}
	mediaType := string(frame.MediaType)
	if mediaType == "" {
		mediaType = string(models.MediaTypeImage)
	}

	additionalNotes := ""
	if notes != nil && strings.TrimSpace(*notes) != "" {
		additionalNotes = prompt.Render(prompt.AdditionalNotesLine, map[string]string{"notes": *notes})
	}
	motionLine := ""
	if frame.MediaType == models.MediaTypeVideo {
		motionLine = prompt.VideoMotionLine
	}

	return prompt.Render(prompt.RegenerateBeat, map[string]string{
		"storyTitle":       fc.Narrative.Title,
		"storyDescription": fc.Narrative.Description,
		"visualStyle":      stringOr(fc.Narrative.VisualStyle, prompt.DefaultVisualStyle),
		"targetAudience":   stringOr(fc.Narrative.TargetAudience, prompt.DefaultAudience),
		"beatTitle":        beatTitle,
		"narrativeText":    narrativeText,
		"mediaType":        mediaType,
		"previousBeat":     frameSummary(previous, prompt.RegenFirstBeatSentinel),
		"nextBeat":         frameSummary(next, prompt.RegenFinalBeatSentinel),
		"additionalNotes":  additionalNotes,
		"motionLine":       motionLine,
	})
}

func frameSummary(f *models.Frame, sentinel string) string {
	if f == nil {
		return sentinel
	}
	return f.BeatTitle + ": " + f.NarrativeContent
}
