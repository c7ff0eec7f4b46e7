package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/database"
	"storyframe-server/internal/messaging"
	"storyframe-server/internal/models"
	"storyframe-server/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const defaultChapterTitle = "Chapter 1"

// StoryGenerator создает историю по брифу: структура, визуальные промпты, сохранение.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, userID uuid.UUID, brief models.StoryBrief) (*models.GenerationResult, error)
}

// GenerationOptions - настройки генерации.
type GenerationOptions struct {
	TextModel       string
	DailyStoryQuota int
	// MinRequestInterval - минимальная пауза между запросами визуальных промптов.
	MinRequestInterval time.Duration
}

// StoryRepositories группирует репозитории, нужные сервисам историй.
type StoryRepositories struct {
	Narratives repository.NarrativeRepository
	Chapters   repository.ChapterRepository
	Frames     repository.FrameRepository
	Logs       repository.GenerationLogRepository
}

type storyGenerator struct {
	db        repository.DBTX
	tx        database.Transactor
	repos     StoryRepositories
	lock      repository.GenerationLock
	structure *structureStage
	visuals   *visualStage
	publisher messaging.EventPublisher
	quota     int
	now       func() time.Time
	logger    *zap.Logger
}

// NewStoryGenerator создает оркестратор генерации. lock и publisher могут быть nil.
func NewStoryGenerator(
	db repository.DBTX,
	tx database.Transactor,
	repos StoryRepositories,
	lock repository.GenerationLock,
	text ai.TextGenerator,
	publisher messaging.EventPublisher,
	opts GenerationOptions,
	logger *zap.Logger,
) StoryGenerator {
	quota := opts.DailyStoryQuota
	if quota <= 0 {
		quota = DefaultDailyStoryQuota
	}
	return &storyGenerator{
		db:        db,
		tx:        tx,
		repos:     repos,
		lock:      lock,
		structure: newStructureStage(text, opts.TextModel, db, repos.Logs, logger),
		visuals:   newVisualStage(text, opts.TextModel, db, repos.Logs, opts.MinRequestInterval, logger),
		publisher: publisher,
		quota:     quota,
		now:       time.Now,
		logger:    logger.Named("StoryGenerator"),
	}
}

// GenerateStory выполняет конвейер генерации.
// Квота проверяется до любого обращения к модели; все записи истории сохраняются в одной транзакции.
func (s *storyGenerator) GenerateStory(ctx context.Context, userID uuid.UUID, brief models.StoryBrief) (result *models.GenerationResult, err error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("framework", brief.Framework))
	defer func() { storyGenerationsTotal.WithLabelValues(outcomeOf(err)).Inc() }()

	if err := brief.Validate(); err != nil {
		return nil, err
	}

	if s.lock != nil {
		token, err := s.lock.Acquire(ctx, userID)
		if err != nil {
			return nil, err
		}
		defer s.releaseLock(ctx, userID, token)
	}

	count, err := s.repos.Logs.CountSince(ctx, s.db, userID, models.OperationStoryStructure, s.now().Add(-quotaWindow))
	if err != nil {
		log.Error("Failed to check generation quota", zap.Error(err))
		return nil, fmt.Errorf("ошибка проверки квоты генераций: %w", err)
	}
	if count >= s.quota {
		log.Warn("Daily story quota exceeded", zap.Int("count", count), zap.Int("quota", s.quota))
		return nil, models.ErrQuotaExceeded
	}

	beatCount := beatCountForLength(brief.StoryLength)
	log.Info("Generating story", zap.Int("beatCount", beatCount))

	structure, err := s.structure.Run(ctx, userID, brief, beatCount)
	if err != nil {
		return nil, err
	}

	visuals, err := s.visuals.Run(ctx, userID, structure, brief)
	if err != nil {
		return nil, err
	}

	narrativeID, err := s.persist(ctx, userID, brief, structure, visuals)
	if err != nil {
		log.Error("Failed to persist generated story", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrPersistenceFailure, err)
	}

	degraded := 0
	for _, v := range visuals {
		if v.Degraded {
			degraded++
		}
	}

	event := messaging.NewStoryEvent(messaging.EventStoryGenerated, userID, narrativeID)
	event.BeatCount = len(structure.Beats)
	event.Degraded = degraded
	publishEvent(ctx, s.publisher, event, log)

	log.Info("Story generated",
		zap.String("narrativeID", narrativeID.String()),
		zap.Int("beats", len(structure.Beats)),
		zap.Int("degraded", degraded),
	)
	return &models.GenerationResult{
		NarrativeID: narrativeID,
		Title:       structure.StoryTitle,
		BeatCount:   len(structure.Beats),
		Degraded:    degraded,
	}, nil
}

func (s *storyGenerator) persist(ctx context.Context, userID uuid.UUID, brief models.StoryBrief, structure *models.StoryStructure, visuals []models.VisualPrompt) (uuid.UUID, error) {
	narrative := &models.Narrative{
		UserID:           userID,
		Title:            structure.StoryTitle,
		Description:      structure.StoryDescription,
		Status:           models.NarrativeStatusDraft,
		GeneratedBy:      models.GeneratedByAI,
		GenerationPrompt: &brief.Theme,
		TargetAudience:   &brief.TargetAudience,
		GenerationMetadata: &models.GenerationMetadata{
			Framework:   brief.Framework,
			StoryLength: brief.StoryLength,
			BeatCount:   len(structure.Beats),
			GeneratedAt: s.now().UTC(),
		},
	}
	if style := strings.TrimSpace(brief.VisualStyle); style != "" {
		narrative.VisualStyle = &style
	}

	err := s.tx.ExecuteInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.repos.Narratives.Create(ctx, tx, narrative); err != nil {
			return err
		}
		chapter := &models.Chapter{NarrativeID: narrative.ID, Title: defaultChapterTitle, OrderIndex: 0}
		if err := s.repos.Chapters.Create(ctx, tx, chapter); err != nil {
			return err
		}
		return s.repos.Frames.CreateBatch(ctx, tx, BuildFrames(chapter.ID, structure, visuals))
	})
	if err != nil {
		return uuid.Nil, err
	}
	return narrative.ID, nil
}

// BuildFrames сопоставляет биты и визуальные промпты; order_index идет подряд с 0.
func BuildFrames(chapterID uuid.UUID, structure *models.StoryStructure, visuals []models.VisualPrompt) []models.Frame {
	frames := make([]models.Frame, len(structure.Beats))
	for i, beat := range structure.Beats {
		visualPrompt := beat.VisualConcept
		if i < len(visuals) && visuals[i].Content != "" {
			visualPrompt = visuals[i].Content
		}
		frames[i] = models.Frame{
			ChapterID:        chapterID,
			OrderIndex:       i,
			NarrativeContent: beat.NarrativeText,
			BeatTitle:        beat.Title,
			VisualPrompt:     visualPrompt,
			MediaType:        models.MediaType(strings.ToLower(beat.MediaType)),
			Duration:         beat.DurationSeconds,
		}
	}
	return frames
}

// releaseLock снимает блокировку даже если контекст запроса уже отменен.
func (s *storyGenerator) releaseLock(ctx context.Context, userID uuid.UUID, token string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()
	if err := s.lock.Release(releaseCtx, userID, token); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Failed to release generation lock", zap.String("userID", userID.String()), zap.Error(err))
	}
}
