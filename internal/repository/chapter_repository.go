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

var _ ChapterRepository = (*pgChapterRepository)(nil)

type pgChapterRepository struct {
	logger *zap.Logger
}

// NewPgChapterRepository создает репозиторий глав.
func NewPgChapterRepository(logger *zap.Logger) ChapterRepository {
	return &pgChapterRepository{logger: logger.Named("PgChapterRepo")}
}

const createChapterQuery = `
INSERT INTO chapters (id, narrative_id, title, order_index)
VALUES ($1, $2, $3, $4)
RETURNING created_at`

const getChapterForUpdateQuery = `
SELECT id, narrative_id, title, order_index, created_at
FROM chapters
WHERE id = $1
FOR UPDATE`

func (r *pgChapterRepository) Create(ctx context.Context, querier DBTX, c *models.Chapter) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := querier.QueryRow(ctx, createChapterQuery, c.ID, c.NarrativeID, c.Title, c.OrderIndex).Scan(&c.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create chapter", zap.String("narrativeID", c.NarrativeID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания главы: %w", err)
	}
	return nil
}

// GetForUpdate читает главу с блокировкой строки; вызывать внутри транзакции.
func (r *pgChapterRepository) GetForUpdate(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Chapter, error) {
	var c models.Chapter
	if err := pgxscan.Get(ctx, querier, &c, getChapterForUpdateQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to lock chapter", zap.String("chapterID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения главы %s: %w", id, err)
	}
	return &c, nil
}
