package service

import (
	"context"
	"errors"
	"fmt"

	"storyframe-server/internal/database"
	"storyframe-server/internal/models"
	"storyframe-server/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// StoryEditor - ручные правки истории владельцем: порядок и текст кадров, статус, видимость.
// Порядок кадров главы после любой правки остается непрерывным 0..N-1.
type StoryEditor interface {
	ReorderFrames(ctx context.Context, userID, chapterID uuid.UUID, orderedFrameIDs []uuid.UUID) ([]models.Frame, error)
	InsertFrame(ctx context.Context, userID, chapterID uuid.UUID, afterIndex int, narrativeContent string) (*models.Frame, error)
	UpdateFrameContent(ctx context.Context, userID, frameID uuid.UUID, narrativeContent string) error
	UpdateStatus(ctx context.Context, userID, narrativeID uuid.UUID, status models.NarrativeStatus) (*models.Narrative, error)
	UpdateVisibility(ctx context.Context, userID, narrativeID uuid.UUID, isPublic bool) (*models.Narrative, error)
}

type storyEditor struct {
	db     repository.DBTX
	tx     database.Transactor
	repos  StoryRepositories
	logger *zap.Logger
}

func NewStoryEditor(db repository.DBTX, tx database.Transactor, repos StoryRepositories, logger *zap.Logger) StoryEditor {
	return &storyEditor{
		db:     db,
		tx:     tx,
		repos:  repos,
		logger: logger.Named("StoryEditor"),
	}
}

// ReorderFrames принимает полный список кадров главы в новом порядке.
func (s *storyEditor) ReorderFrames(ctx context.Context, userID, chapterID uuid.UUID, orderedFrameIDs []uuid.UUID) ([]models.Frame, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("chapterID", chapterID.String()))
	if len(orderedFrameIDs) == 0 {
		return nil, fmt.Errorf("%w: frame_ids is required", models.ErrInvalidInput)
	}

	var reordered []models.Frame
	err := s.tx.ExecuteInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.lockOwnedChapter(ctx, tx, userID, chapterID); err != nil {
			return err
		}
		current, err := s.repos.Frames.ListByChapter(ctx, tx, chapterID)
		if err != nil {
			return err
		}
		if err := samePermutation(current, orderedFrameIDs); err != nil {
			return err
		}
		if err := s.repos.Frames.Reorder(ctx, tx, chapterID, orderedFrameIDs); err != nil {
			return err
		}
		reordered, err = s.repos.Frames.ListByChapter(ctx, tx, chapterID)
		return err
	})
	if err != nil {
		return nil, s.editError(log, "Failed to reorder frames", err)
	}

	log.Info("Frames reordered", zap.Int("count", len(reordered)))
	return reordered, nil
}

// InsertFrame вставляет пустой кадр после afterIndex; -1 - в начало главы.
func (s *storyEditor) InsertFrame(ctx context.Context, userID, chapterID uuid.UUID, afterIndex int, narrativeContent string) (*models.Frame, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("chapterID", chapterID.String()))

	frame := &models.Frame{
		ChapterID:        chapterID,
		NarrativeContent: narrativeContent,
		MediaType:        models.MediaTypeImage,
	}
	err := s.tx.ExecuteInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.lockOwnedChapter(ctx, tx, userID, chapterID); err != nil {
			return err
		}
		current, err := s.repos.Frames.ListByChapter(ctx, tx, chapterID)
		if err != nil {
			return err
		}
		if afterIndex < -1 || afterIndex >= len(current) {
			return fmt.Errorf("%w: after_index must be between -1 and %d, got %d", models.ErrInvalidInput, len(current)-1, afterIndex)
		}
		return s.repos.Frames.InsertAfter(ctx, tx, frame, afterIndex)
	})
	if err != nil {
		return nil, s.editError(log, "Failed to insert frame", err)
	}

	log.Info("Frame inserted", zap.String("frameID", frame.ID.String()), zap.Int("orderIndex", frame.OrderIndex))
	return frame, nil
}

func (s *storyEditor) UpdateFrameContent(ctx context.Context, userID, frameID uuid.UUID, narrativeContent string) error {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("frameID", frameID.String()))

	fc, err := s.repos.Frames.GetWithContext(ctx, s.db, frameID)
	if err != nil {
		return s.editError(log, "Failed to load frame", err)
	}
	if fc.Narrative.UserID != userID {
		return models.ErrForbidden
	}
	if err := s.repos.Frames.UpdateContent(ctx, s.db, frameID, narrativeContent); err != nil {
		return s.editError(log, "Failed to update frame content", err)
	}
	return nil
}

func (s *storyEditor) UpdateStatus(ctx context.Context, userID, narrativeID uuid.UUID, status models.NarrativeStatus) (*models.Narrative, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status must be draft, published or archived, got %q", models.ErrInvalidInput, status)
	}
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("narrativeID", narrativeID.String()))

	narrative, err := s.ownedNarrative(ctx, userID, narrativeID)
	if err != nil {
		return nil, s.editError(log, "Failed to load narrative", err)
	}
	if err := s.repos.Narratives.UpdateStatus(ctx, s.db, narrativeID, status); err != nil {
		return nil, s.editError(log, "Failed to update narrative status", err)
	}
	narrative.Status = status
	log.Info("Narrative status updated", zap.String("status", string(status)))
	return narrative, nil
}

func (s *storyEditor) UpdateVisibility(ctx context.Context, userID, narrativeID uuid.UUID, isPublic bool) (*models.Narrative, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("narrativeID", narrativeID.String()))

	narrative, err := s.ownedNarrative(ctx, userID, narrativeID)
	if err != nil {
		return nil, s.editError(log, "Failed to load narrative", err)
	}
	if err := s.repos.Narratives.UpdateVisibility(ctx, s.db, narrativeID, isPublic); err != nil {
		return nil, s.editError(log, "Failed to update narrative visibility", err)
	}
	narrative.IsPublic = isPublic
	log.Info("Narrative visibility updated", zap.Bool("isPublic", isPublic))
	return narrative, nil
}

func (s *storyEditor) ownedNarrative(ctx context.Context, userID, narrativeID uuid.UUID) (*models.Narrative, error) {
	narrative, err := s.repos.Narratives.GetByID(ctx, s.db, narrativeID)
	if err != nil {
		return nil, err
	}
	if narrative.UserID != userID {
		return nil, models.ErrForbidden
	}
	return narrative, nil
}

// lockOwnedChapter блокирует главу на время транзакции и проверяет владельца истории.
func (s *storyEditor) lockOwnedChapter(ctx context.Context, tx repository.DBTX, userID, chapterID uuid.UUID) error {
	chapter, err := s.repos.Chapters.GetForUpdate(ctx, tx, chapterID)
	if err != nil {
		return err
	}
	narrative, err := s.repos.Narratives.GetByID(ctx, tx, chapter.NarrativeID)
	if err != nil {
		return err
	}
	if narrative.UserID != userID {
		return models.ErrForbidden
	}
	return nil
}

// editError пропускает доменные ошибки как есть, остальное - ErrPersistenceFailure.
func (s *storyEditor) editError(log *zap.Logger, msg string, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrNotFound):
		log.Warn(msg, zap.Error(err))
		return err
	default:
		log.Error(msg, zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrPersistenceFailure, err)
	}
}

// samePermutation проверяет, что ids - перестановка кадров главы без повторов.
func samePermutation(current []models.Frame, ids []uuid.UUID) error {
	if len(ids) != len(current) {
		return fmt.Errorf("%w: expected %d frame ids, got %d", models.ErrInvalidInput, len(current), len(ids))
	}
	known := make(map[uuid.UUID]bool, len(current))
	for _, f := range current {
		known[f.ID] = false
	}
	for _, id := range ids {
		seen, ok := known[id]
		if !ok {
			return fmt.Errorf("%w: frame %s does not belong to the chapter", models.ErrInvalidInput, id)
		}
		if seen {
			return fmt.Errorf("%w: frame %s is listed twice", models.ErrInvalidInput, id)
		}
		known[id] = true
	}
	return nil
}
