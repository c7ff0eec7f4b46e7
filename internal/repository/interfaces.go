package repository

import (
	"context"
	"time"

	"storyframe-server/internal/models"

	"github.com/google/uuid"
)

// NarrativeRepository хранит истории.
type NarrativeRepository interface {
	Create(ctx context.Context, querier DBTX, narrative *models.Narrative) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Narrative, error)
	UpdateCover(ctx context.Context, querier DBTX, id uuid.UUID, thumbnailURL, coverPrompt string) error
	UpdateStatus(ctx context.Context, querier DBTX, id uuid.UUID, status models.NarrativeStatus) error
	UpdateVisibility(ctx context.Context, querier DBTX, id uuid.UUID, isPublic bool) error
}

// ChapterRepository хранит главы.
type ChapterRepository interface {
	Create(ctx context.Context, querier DBTX, chapter *models.Chapter) error
	// GetForUpdate блокирует строку главы до конца транзакции.
	GetForUpdate(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Chapter, error)
}

// FrameRepository хранит кадры.
type FrameRepository interface {
	CreateBatch(ctx context.Context, querier DBTX, frames []models.Frame) error
	GetWithContext(ctx context.Context, querier DBTX, frameID uuid.UUID) (*models.FrameContext, error)
	ListByChapter(ctx context.Context, querier DBTX, chapterID uuid.UUID) ([]models.Frame, error)
	UpdateRegenerated(ctx context.Context, querier DBTX, frameID uuid.UUID, visualPrompt, narrativeContent string, entry models.PromptHistoryEntry) error
	UpdateContent(ctx context.Context, querier DBTX, frameID uuid.UUID, narrativeContent string) error
	// Reorder присваивает кадрам главы order_index 0..N-1 в порядке orderedIDs.
	Reorder(ctx context.Context, querier DBTX, chapterID uuid.UUID, orderedIDs []uuid.UUID) error
	// InsertAfter сдвигает кадры с order_index > afterIndex и вставляет frame на afterIndex+1.
	InsertAfter(ctx context.Context, querier DBTX, frame *models.Frame, afterIndex int) error
}

// GenerationLogRepository - журнал генераций, только добавление и подсчет.
type GenerationLogRepository interface {
	Insert(ctx context.Context, querier DBTX, entry *models.GenerationLogEntry) error
	CountSince(ctx context.Context, querier DBTX, userID uuid.UUID, op models.OperationType, since time.Time) (int, error)
}

// GenerationLock не дает одному пользователю запускать параллельные генерации.
type GenerationLock interface {
	// Acquire возвращает токен блокировки или models.ErrUserHasActiveGeneration.
	Acquire(ctx context.Context, userID uuid.UUID) (string, error)
	Release(ctx context.Context, userID uuid.UUID, token string) error
}
