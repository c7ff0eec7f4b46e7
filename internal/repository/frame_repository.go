package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storyframe-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ FrameRepository = (*pgFrameRepository)(nil)

type pgFrameRepository struct {
	logger *zap.Logger
}

// NewPgFrameRepository создает репозиторий кадров.
func NewPgFrameRepository(logger *zap.Logger) FrameRepository {
	return &pgFrameRepository{logger: logger.Named("PgFrameRepo")}
}

const createFrameQuery = `
INSERT INTO frames (id, chapter_id, order_index, narrative_content, beat_title, visual_prompt, media_type, duration)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getFrameWithContextQuery = `
SELECT f.id, f.chapter_id, f.order_index, f.narrative_content, f.beat_title, f.visual_prompt,
    f.media_type, f.media_url, f.duration, f.ai_prompt_history, f.created_at, f.updated_at,
    c.id, c.narrative_id, c.title, c.order_index, c.created_at,
    n.id, n.user_id, n.title, n.description, n.status, n.is_public, n.generated_by,
    n.target_audience, n.visual_style
FROM frames f
JOIN chapters c ON c.id = f.chapter_id
JOIN narratives n ON n.id = c.narrative_id
WHERE f.id = $1`

const listFramesByChapterQuery = `
SELECT id, chapter_id, order_index, narrative_content, beat_title, visual_prompt,
    media_type, media_url, duration, ai_prompt_history, created_at, updated_at
FROM frames
WHERE chapter_id = $1
ORDER BY order_index ASC`

// История промптов только дополняется, существующие элементы не меняются.
const updateRegeneratedFrameQuery = `
UPDATE frames
SET visual_prompt = $2,
    narrative_content = $3,
    ai_prompt_history = COALESCE(ai_prompt_history, '[]'::jsonb) || $4::jsonb,
    updated_at = $5
WHERE id = $1`

const updateFrameContentQuery = `
UPDATE frames SET narrative_content = $2, updated_at = NOW() WHERE id = $1`

// Один оператор: уникальность (chapter_id, order_index) отложена до его конца.
const reorderFramesQuery = `
UPDATE frames f
SET order_index = o.position - 1, updated_at = NOW()
FROM unnest($2::uuid[]) WITH ORDINALITY AS o(id, position)
WHERE f.id = o.id AND f.chapter_id = $1`

const shiftFramesQuery = `
UPDATE frames
SET order_index = order_index + 1, updated_at = NOW()
WHERE chapter_id = $1 AND order_index > $2`

// CreateBatch вставляет кадры одним батчем. order_index берется из кадров как есть.
func (r *pgFrameRepository) CreateBatch(ctx context.Context, querier DBTX, frames []models.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range frames {
		f := &frames[i]
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		batch.Queue(createFrameQuery,
			f.ID,
			f.ChapterID,
			f.OrderIndex,
			f.NarrativeContent,
			f.BeatTitle,
			f.VisualPrompt,
			string(f.MediaType),
			f.Duration,
		)
	}

	results := querier.SendBatch(ctx, batch)
	for i := range frames {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			r.logger.Error("Failed to insert frame",
				zap.String("chapterID", frames[i].ChapterID.String()),
				zap.Int("orderIndex", frames[i].OrderIndex),
				zap.Error(err),
			)
			return fmt.Errorf("ошибка создания кадра %d: %w", frames[i].OrderIndex, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("ошибка завершения батча кадров: %w", err)
	}

	r.logger.Debug("Frames created", zap.Int("count", len(frames)), zap.String("chapterID", frames[0].ChapterID.String()))
	return nil
}

// GetWithContext возвращает кадр вместе с главой и историей.
func (r *pgFrameRepository) GetWithContext(ctx context.Context, querier DBTX, frameID uuid.UUID) (*models.FrameContext, error) {
	var fc models.FrameContext
	var mediaType, status string
	f := &fc.Frame
	c := &fc.Chapter
	n := &fc.Narrative

	err := querier.QueryRow(ctx, getFrameWithContextQuery, frameID).Scan(
		&f.ID, &f.ChapterID, &f.OrderIndex, &f.NarrativeContent, &f.BeatTitle, &f.VisualPrompt,
		&mediaType, &f.MediaURL, &f.Duration, &f.AIPromptHistory, &f.CreatedAt, &f.UpdatedAt,
		&c.ID, &c.NarrativeID, &c.Title, &c.OrderIndex, &c.CreatedAt,
		&n.ID, &n.UserID, &n.Title, &n.Description, &status, &n.IsPublic, &n.GeneratedBy,
		&n.TargetAudience, &n.VisualStyle,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get frame with context", zap.String("frameID", frameID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения кадра %s: %w", frameID, err)
	}
	f.MediaType = models.MediaType(mediaType)
	n.Status = models.NarrativeStatus(status)
	return &fc, nil
}

// ListByChapter возвращает кадры главы по возрастанию order_index.
func (r *pgFrameRepository) ListByChapter(ctx context.Context, querier DBTX, chapterID uuid.UUID) ([]models.Frame, error) {
	var frames []models.Frame
	if err := pgxscan.Select(ctx, querier, &frames, listFramesByChapterQuery, chapterID); err != nil {
		r.logger.Error("Failed to list frames", zap.String("chapterID", chapterID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения кадров главы %s: %w", chapterID, err)
	}
	return frames, nil
}

// UpdateRegenerated обновляет промпт и текст кадра и добавляет запись в ai_prompt_history.
func (r *pgFrameRepository) UpdateRegenerated(ctx context.Context, querier DBTX, frameID uuid.UUID, visualPrompt, narrativeContent string, entry models.PromptHistoryEntry) error {
	historyJSON, err := json.Marshal([]models.PromptHistoryEntry{entry})
	if err != nil {
		return fmt.Errorf("ошибка сериализации истории промптов: %w", err)
	}

	tag, err := querier.Exec(ctx, updateRegeneratedFrameQuery, frameID, visualPrompt, narrativeContent, string(historyJSON), time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update regenerated frame", zap.String("frameID", frameID.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления кадра %s: %w", frameID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgFrameRepository) UpdateContent(ctx context.Context, querier DBTX, frameID uuid.UUID, narrativeContent string) error {
	tag, err := querier.Exec(ctx, updateFrameContentQuery, frameID, narrativeContent)
	if err != nil {
		r.logger.Error("Failed to update frame content", zap.String("frameID", frameID.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления текста кадра %s: %w", frameID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Reorder ожидает полный список кадров главы; иначе порядок перестанет быть непрерывным.
func (r *pgFrameRepository) Reorder(ctx context.Context, querier DBTX, chapterID uuid.UUID, orderedIDs []uuid.UUID) error {
	ids := make([]string, len(orderedIDs))
	for i, id := range orderedIDs {
		ids[i] = id.String()
	}

	tag, err := querier.Exec(ctx, reorderFramesQuery, chapterID, ids)
	if err != nil {
		r.logger.Error("Failed to reorder frames", zap.String("chapterID", chapterID.String()), zap.Error(err))
		return fmt.Errorf("ошибка изменения порядка кадров главы %s: %w", chapterID, err)
	}
	if int(tag.RowsAffected()) != len(orderedIDs) {
		return fmt.Errorf("%w: reordered %d of %d frames", models.ErrNotFound, tag.RowsAffected(), len(orderedIDs))
	}
	return nil
}

// InsertAfter: afterIndex = -1 вставляет кадр в начало главы.
func (r *pgFrameRepository) InsertAfter(ctx context.Context, querier DBTX, frame *models.Frame, afterIndex int) error {
	if frame.ID == uuid.Nil {
		frame.ID = uuid.New()
	}
	if frame.MediaType == "" {
		frame.MediaType = models.MediaTypeImage
	}
	frame.OrderIndex = afterIndex + 1

	if _, err := querier.Exec(ctx, shiftFramesQuery, frame.ChapterID, afterIndex); err != nil {
		r.logger.Error("Failed to shift frames", zap.String("chapterID", frame.ChapterID.String()), zap.Error(err))
		return fmt.Errorf("ошибка сдвига кадров главы %s: %w", frame.ChapterID, err)
	}
	_, err := querier.Exec(ctx, createFrameQuery,
		frame.ID,
		frame.ChapterID,
		frame.OrderIndex,
		frame.NarrativeContent,
		frame.BeatTitle,
		frame.VisualPrompt,
		string(frame.MediaType),
		frame.Duration,
	)
	if err != nil {
		r.logger.Error("Failed to insert frame", zap.String("chapterID", frame.ChapterID.String()), zap.Error(err))
		return fmt.Errorf("ошибка вставки кадра: %w", err)
	}
	return nil
}
