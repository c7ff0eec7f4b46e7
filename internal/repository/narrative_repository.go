package repository

import (
	"context"
	"errors"
	"fmt"

	"storyframe-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ NarrativeRepository = (*pgNarrativeRepository)(nil)

type pgNarrativeRepository struct {
	logger *zap.Logger
}

// NewPgNarrativeRepository создает репозиторий историй.
func NewPgNarrativeRepository(logger *zap.Logger) NarrativeRepository {
	return &pgNarrativeRepository{logger: logger.Named("PgNarrativeRepo")}
}

const createNarrativeQuery = `
INSERT INTO narratives (id, user_id, title, description, status, is_public, generated_by,
    generation_prompt, target_audience, visual_style, generation_metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING created_at, updated_at`

const getNarrativeByIDQuery = `
SELECT id, user_id, title, description, status, is_public, generated_by, generation_prompt,
    target_audience, visual_style, generation_metadata, thumbnail_url, ai_cover_prompt,
    created_at, updated_at
FROM narratives
WHERE id = $1`

const updateNarrativeCoverQuery = `
UPDATE narratives
SET thumbnail_url = $2, ai_cover_prompt = $3, updated_at = NOW()
WHERE id = $1`

const updateNarrativeStatusQuery = `
UPDATE narratives SET status = $2, updated_at = NOW() WHERE id = $1`

const updateNarrativeVisibilityQuery = `
UPDATE narratives SET is_public = $2, updated_at = NOW() WHERE id = $1`

// Create вставляет историю. ID генерируется, если не задан.
func (r *pgNarrativeRepository) Create(ctx context.Context, querier DBTX, n *models.Narrative) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = models.NarrativeStatusDraft
	}
	if n.GeneratedBy == "" {
		n.GeneratedBy = models.GeneratedByManual
	}

	err := querier.QueryRow(ctx, createNarrativeQuery,
		n.ID,
		n.UserID,
		n.Title,
		n.Description,
		string(n.Status),
		n.IsPublic,
		n.GeneratedBy,
		n.GenerationPrompt,
		n.TargetAudience,
		n.VisualStyle,
		n.GenerationMetadata,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create narrative", zap.String("userID", n.UserID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания истории: %w", err)
	}
	r.logger.Debug("Narrative created", zap.String("narrativeID", n.ID.String()))
	return nil
}

// GetByID возвращает историю или models.ErrNotFound.
func (r *pgNarrativeRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Narrative, error) {
	var n models.Narrative
	if err := pgxscan.Get(ctx, querier, &n, getNarrativeByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get narrative", zap.String("narrativeID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения истории %s: %w", id, err)
	}
	return &n, nil
}

// UpdateCover сохраняет ссылку на обложку и промпт, по которому она создана.
func (r *pgNarrativeRepository) UpdateCover(ctx context.Context, querier DBTX, id uuid.UUID, thumbnailURL, coverPrompt string) error {
	tag, err := querier.Exec(ctx, updateNarrativeCoverQuery, id, thumbnailURL, coverPrompt)
	if err != nil {
		r.logger.Error("Failed to update narrative cover", zap.String("narrativeID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления обложки истории %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgNarrativeRepository) UpdateStatus(ctx context.Context, querier DBTX, id uuid.UUID, status models.NarrativeStatus) error {
	tag, err := querier.Exec(ctx, updateNarrativeStatusQuery, id, string(status))
	if err != nil {
		r.logger.Error("Failed to update narrative status", zap.String("narrativeID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления статуса истории %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgNarrativeRepository) UpdateVisibility(ctx context.Context, querier DBTX, id uuid.UUID, isPublic bool) error {
	tag, err := querier.Exec(ctx, updateNarrativeVisibilityQuery, id, isPublic)
	if err != nil {
		r.logger.Error("Failed to update narrative visibility", zap.String("narrativeID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления видимости истории %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
