package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/models"
	"storyframe-server/internal/prompt"
	"storyframe-server/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultAspectRatio = "16:9"
	defaultVideoModel  = "veo-3.1-generate-preview"
)

// MediaService генерирует изображения и видео и сохраняет их в хранилище.
type MediaService interface {
	GenerateImage(ctx context.Context, userID uuid.UUID, promptText, aspectRatio string) (*models.ImageResult, error)
	GenerateVideo(ctx context.Context, userID uuid.UUID, params models.VideoParams) (*models.VideoResult, error)
}

// VideoOptions - параметры опроса задачи генерации видео.
type VideoOptions struct {
	DefaultModel string
	PollInterval time.Duration
	MaxAttempts  int
	Sleep        SleepFunc
}

type mediaService struct {
	images  ai.ImageGenerator
	videos  ai.VideoGenerator
	storage storage.Storage
	video   VideoOptions
	logger  *zap.Logger
}

func NewMediaService(images ai.ImageGenerator, videos ai.VideoGenerator, store storage.Storage, video VideoOptions, logger *zap.Logger) MediaService {
	if video.DefaultModel == "" {
		video.DefaultModel = defaultVideoModel
	}
	return &mediaService{
		images:  images,
		videos:  videos,
		storage: store,
		video:   video,
		logger:  logger.Named("MediaService"),
	}
}

func (s *mediaService) GenerateImage(ctx context.Context, userID uuid.UUID, promptText, aspectRatio string) (*models.ImageResult, error) {
	if strings.TrimSpace(promptText) == "" {
		return nil, fmt.Errorf("%w: prompt is required", models.ErrInvalidInput)
	}
	if aspectRatio == "" {
		aspectRatio = defaultAspectRatio
	}
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("aspectRatio", aspectRatio))

	enhanced := prompt.Render(prompt.ImageEnhance, map[string]string{
		"aspectRatio": aspectRatio,
		"prompt":      promptText,
	})
	asset, err := s.images.GenerateImage(ctx, ai.ImageRequest{Prompt: enhanced, AspectRatio: aspectRatio})
	if err != nil {
		log.Error("Image generation failed", zap.Error(err))
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.png", userID, uuid.New())
	url, err := s.storage.Save(ctx, key, bytes.NewReader(asset.Data), mimeOr(asset.MIMEType, "image/png"))
	if err != nil {
		log.Error("Failed to store generated image", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to upload image: %v", models.ErrPersistenceFailure, err)
	}

	log.Info("Image generated", zap.String("key", key))
	return &models.ImageResult{URL: url, Prompt: enhanced, Model: asset.Model}, nil
}

// GenerateVideo допускает только длительность 4, 6 или 8 секунд; 0 означает значение по умолчанию.
func (s *mediaService) GenerateVideo(ctx context.Context, userID uuid.UUID, params models.VideoParams) (*models.VideoResult, error) {
	if strings.TrimSpace(params.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", models.ErrInvalidInput)
	}
	if params.Duration == 0 {
		params.Duration = defaultVideoDuration
	}
	if !validVideoDuration(params.Duration) {
		return nil, fmt.Errorf("%w: duration must be 4, 6, or 8 seconds, got %d", models.ErrInvalidInput, params.Duration)
	}
	if params.AspectRatio == "" {
		params.AspectRatio = defaultAspectRatio
	}
	if params.Model == "" {
		params.Model = s.video.DefaultModel
	}
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("model", params.Model))

	job := NewVideoJob(s.videos, s.video.PollInterval, s.video.MaxAttempts, s.video.Sleep, s.logger)
	asset, err := job.Run(ctx, ai.VideoRequest{
		Prompt:          params.Prompt,
		Model:           params.Model,
		AspectRatio:     params.AspectRatio,
		DurationSeconds: params.Duration,
	})
	if err != nil {
		log.Error("Video generation failed", zap.String("state", string(job.State())), zap.Error(err))
		return nil, err
	}

	key := uuid.NewString() + ".mp4"
	url, err := s.storage.Save(ctx, key, bytes.NewReader(asset.Data), mimeOr(asset.MIMEType, "video/mp4"))
	if err != nil {
		log.Error("Failed to store generated video", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to upload video: %v", models.ErrPersistenceFailure, err)
	}

	return &models.VideoResult{
		URL:         url,
		Model:       params.Model,
		Duration:    params.Duration,
		AspectRatio: params.AspectRatio,
	}, nil
}

func mimeOr(mime, fallback string) string {
	if mime == "" {
		return fallback
	}
	return mime
}
