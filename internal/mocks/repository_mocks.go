package mocks

import (
	"context"
	"time"

	"storyframe-server/internal/models"
	"storyframe-server/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// NarrativeRepository mock
type NarrativeRepository struct {
	mock.Mock
}

func (m *NarrativeRepository) Create(ctx context.Context, querier repository.DBTX, narrative *models.Narrative) error {
	return m.Called(ctx, querier, narrative).Error(0)
}

func (m *NarrativeRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.Narrative, error) {
	args := m.Called(ctx, querier, id)
	n, _ := args.Get(0).(*models.Narrative)
	return n, args.Error(1)
}

func (m *NarrativeRepository) UpdateCover(ctx context.Context, querier repository.DBTX, id uuid.UUID, thumbnailURL, coverPrompt string) error {
	return m.Called(ctx, querier, id, thumbnailURL, coverPrompt).Error(0)
}

func (m *NarrativeRepository) UpdateStatus(ctx context.Context, querier repository.DBTX, id uuid.UUID, status models.NarrativeStatus) error {
	return m.Called(ctx, querier, id, status).Error(0)
}

func (m *NarrativeRepository) UpdateVisibility(ctx context.Context, querier repository.DBTX, id uuid.UUID, isPublic bool) error {
	return m.Called(ctx, querier, id, isPublic).Error(0)
}

// ChapterRepository mock
type ChapterRepository struct {
	mock.Mock
}

func (m *ChapterRepository) Create(ctx context.Context, querier repository.DBTX, chapter *models.Chapter) error {
	return m.Called(ctx, querier, chapter).Error(0)
}

func (m *ChapterRepository) GetForUpdate(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.Chapter, error) {
	args := m.Called(ctx, querier, id)
	c, _ := args.Get(0).(*models.Chapter)
	return c, args.Error(1)
}

// FrameRepository mock
type FrameRepository struct {
	mock.Mock
}

func (m *FrameRepository) CreateBatch(ctx context.Context, querier repository.DBTX, frames []models.Frame) error {
	return m.Called(ctx, querier, frames).Error(0)
}

func (m *FrameRepository) GetWithContext(ctx context.Context, querier repository.DBTX, frameID uuid.UUID) (*models.FrameContext, error) {
	args := m.Called(ctx, querier, frameID)
	fc, _ := args.Get(0).(*models.FrameContext)
	return fc, args.Error(1)
}

func (m *FrameRepository) ListByChapter(ctx context.Context, querier repository.DBTX, chapterID uuid.UUID) ([]models.Frame, error) {
	args := m.Called(ctx, querier, chapterID)
	frames, _ := args.Get(0).([]models.Frame)
	return frames, args.Error(1)
}

func (m *FrameRepository) UpdateRegenerated(ctx context.Context, querier repository.DBTX, frameID uuid.UUID, visualPrompt, narrativeContent string, entry models.PromptHistoryEntry) error {
	return m.Called(ctx, querier, frameID, visualPrompt, narrativeContent, entry).Error(0)
}

func (m *FrameRepository) UpdateContent(ctx context.Context, querier repository.DBTX, frameID uuid.UUID, narrativeContent string) error {
	return m.Called(ctx, querier, frameID, narrativeContent).Error(0)
}

func (m *FrameRepository) Reorder(ctx context.Context, querier repository.DBTX, chapterID uuid.UUID, orderedIDs []uuid.UUID) error {
	return m.Called(ctx, querier, chapterID, orderedIDs).Error(0)
}

func (m *FrameRepository) InsertAfter(ctx context.Context, querier repository.DBTX, frame *models.Frame, afterIndex int) error {
	return m.Called(ctx, querier, frame, afterIndex).Error(0)
}

// GenerationLogRepository mock
type GenerationLogRepository struct {
	mock.Mock
}

func (m *GenerationLogRepository) Insert(ctx context.Context, querier repository.DBTX, entry *models.GenerationLogEntry) error {
	return m.Called(ctx, querier, entry).Error(0)
}

func (m *GenerationLogRepository) CountSince(ctx context.Context, querier repository.DBTX, userID uuid.UUID, op models.OperationType, since time.Time) (int, error) {
	args := m.Called(ctx, querier, userID, op, since)
	return args.Int(0), args.Error(1)
}

// GenerationLock mock
type GenerationLock struct {
	mock.Mock
}

func (m *GenerationLock) Acquire(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *GenerationLock) Release(ctx context.Context, userID uuid.UUID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

var (
	_ repository.NarrativeRepository     = (*NarrativeRepository)(nil)
	_ repository.ChapterRepository       = (*ChapterRepository)(nil)
	_ repository.FrameRepository         = (*FrameRepository)(nil)
	_ repository.GenerationLogRepository = (*GenerationLogRepository)(nil)
	_ repository.GenerationLock          = (*GenerationLock)(nil)
)
