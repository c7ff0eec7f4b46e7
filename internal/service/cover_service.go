package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/messaging"
	"storyframe-server/internal/models"
	"storyframe-server/internal/prompt"
	"storyframe-server/internal/repository"
	"storyframe-server/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const coverAspectRatio = "2:3"

// CoverService создает обложку истории: промпт постера, изображение, ссылка в истории.
type CoverService interface {
	GenerateCover(ctx context.Context, userID uuid.UUID, params models.CoverParams) (*models.CoverResult, error)
}

type coverService struct {
	db         repository.DBTX
	narratives repository.NarrativeRepository
	text       ai.TextGenerator
	images     ai.ImageGenerator
	storage    storage.Storage
	publisher  messaging.EventPublisher
	now        func() time.Time
	logger     *zap.Logger
}

func NewCoverService(
	db repository.DBTX,
	narratives repository.NarrativeRepository,
	text ai.TextGenerator,
	images ai.ImageGenerator,
	store storage.Storage,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) CoverService {
	return &coverService{
		db:         db,
		narratives: narratives,
		text:       text,
		images:     images,
		storage:    store,
		publisher:  publisher,
		now:        time.Now,
		logger:     logger.Named("CoverService"),
	}
}

func (s *coverService) GenerateCover(ctx context.Context, userID uuid.UUID, params models.CoverParams) (*models.CoverResult, error) {
	if params.NarrativeID == uuid.Nil {
		return nil, fmt.Errorf("%w: narrative_id is required", models.ErrInvalidInput)
	}
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("narrativeID", params.NarrativeID.String()))

	narrative, err := s.narratives.GetByID(ctx, s.db, params.NarrativeID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	if narrative.UserID != userID {
		log.Warn("User does not own the narrative")
		return nil, models.ErrForbidden
	}

	title := firstNonEmpty(params.Title, narrative.Title, prompt.DefaultCoverTitle)
	description := firstNonEmpty(params.Description, narrative.Description, prompt.DefaultCoverDescription)

	resp, err := s.text.CompleteText(ctx, ai.TextRequest{
		UserID:       userID.String(),
		SystemPrompt: prompt.CoverSystem,
		Messages: []string{prompt.Render(prompt.CoverUser, map[string]string{
			"title":       title,
			"description": description,
		})},
	})
	if err != nil {
		log.Error("Cover prompt generation failed", zap.Error(err))
		return nil, err
	}
	coverPrompt := strings.TrimSpace(resp.Content)
	if coverPrompt == "" {
		coverPrompt = prompt.Render(prompt.CoverFallback, map[string]string{"title": title})
	}

	asset, err := s.images.GenerateImage(ctx, ai.ImageRequest{
		Prompt:      prompt.Render(prompt.CoverImage, map[string]string{"prompt": coverPrompt}),
		AspectRatio: coverAspectRatio,
	})
	if err != nil {
		log.Error("Cover image generation failed", zap.Error(err))
		return nil, err
	}

	key := fmt.Sprintf("covers/%s_%d.png", params.NarrativeID, s.now().UnixMilli())
	url, err := s.storage.Save(ctx, key, bytes.NewReader(asset.Data), mimeOr(asset.MIMEType, "image/png"))
	if err != nil {
		log.Error("Failed to store cover", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to upload cover image: %v", models.ErrPersistenceFailure, err)
	}

	// Обложка уже загружена: ошибка обновления истории не отменяет результат.
	if err := s.narratives.UpdateCover(ctx, s.db, params.NarrativeID, url, coverPrompt); err != nil {
		log.Error("Failed to update narrative cover", zap.Error(err))
	}

	event := messaging.NewStoryEvent(messaging.EventCoverGenerated, userID, params.NarrativeID)
	event.CoverURL = url
	publishEvent(ctx, s.publisher, event, log)

	log.Info("Cover generated", zap.String("key", key))
	return &models.CoverResult{CoverURL: url, Prompt: coverPrompt}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
