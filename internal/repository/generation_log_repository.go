package repository

import (
	"context"
	"fmt"
	"time"

	"storyframe-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ GenerationLogRepository = (*pgGenerationLogRepository)(nil)

type pgGenerationLogRepository struct {
	logger *zap.Logger
}

// NewPgGenerationLogRepository создает репозиторий журнала генераций.
func NewPgGenerationLogRepository(logger *zap.Logger) GenerationLogRepository {
	return &pgGenerationLogRepository{logger: logger.Named("PgGenerationLogRepo")}
}

const insertGenerationLogQuery = `
INSERT INTO generation_logs (id, user_id, narrative_id, operation_type, model_used, prompt_preview)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`

const countGenerationLogsSinceQuery = `
SELECT COUNT(*)
FROM generation_logs
WHERE user_id = $1 AND operation_type = $2 AND created_at >= $3`

func (r *pgGenerationLogRepository) Insert(ctx context.Context, querier DBTX, e *models.GenerationLogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	err := querier.QueryRow(ctx, insertGenerationLogQuery,
		e.ID, e.UserID, e.NarrativeID, string(e.OperationType), e.ModelUsed, e.PromptPreview,
	).Scan(&e.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert generation log",
			zap.String("userID", e.UserID.String()),
			zap.String("operation", string(e.OperationType)),
			zap.Error(err),
		)
		return fmt.Errorf("ошибка записи в журнал генераций: %w", err)
	}
	return nil
}

func (r *pgGenerationLogRepository) CountSince(ctx context.Context, querier DBTX, userID uuid.UUID, op models.OperationType, since time.Time) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countGenerationLogsSinceQuery, userID, string(op), since).Scan(&count); err != nil {
		r.logger.Error("Failed to count generation logs", zap.String("userID", userID.String()), zap.Error(err))
		return 0, fmt.Errorf("ошибка подсчета записей журнала: %w", err)
	}
	return count, nil
}
