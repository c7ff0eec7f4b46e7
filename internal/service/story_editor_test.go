package service_test

import (
	"context"
	"errors"
	"testing"

	"storyframe-server/internal/mocks"
	"storyframe-server/internal/models"
	"storyframe-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type editorFixture struct {
	tx         *mocks.Transactor
	narratives *mocks.NarrativeRepository
	chapters   *mocks.ChapterRepository
	frames     *mocks.FrameRepository
	editor     service.StoryEditor

	userID    uuid.UUID
	narrative *models.Narrative
	chapter   *models.Chapter
}

func newEditorFixture(t *testing.T) *editorFixture {
	f := &editorFixture{
		tx:         new(mocks.Transactor),
		narratives: new(mocks.NarrativeRepository),
		chapters:   new(mocks.ChapterRepository),
		frames:     new(mocks.FrameRepository),
		userID:     uuid.New(),
	}
	f.narrative = &models.Narrative{ID: uuid.New(), UserID: f.userID, Status: models.NarrativeStatusDraft}
	f.chapter = &models.Chapter{ID: uuid.New(), NarrativeID: f.narrative.ID}
	repos := service.StoryRepositories{
		Narratives: f.narratives,
		Chapters:   f.chapters,
		Frames:     f.frames,
	}
	f.editor = service.NewStoryEditor(nil, f.tx, repos, zap.NewNop())
	t.Cleanup(func() {
		f.tx.AssertExpectations(t)
		f.narratives.AssertExpectations(t)
		f.chapters.AssertExpectations(t)
		f.frames.AssertExpectations(t)
	})
	return f
}

// expectLockedChapter готовит транзакцию с заблокированной главой владельца.
func (f *editorFixture) expectLockedChapter() {
	f.tx.On("ExecuteInTransaction", mock.Anything).Return(nil).Once()
	f.chapters.On("GetForUpdate", mock.Anything, mock.Anything, f.chapter.ID).Return(f.chapter, nil).Once()
	f.narratives.On("GetByID", mock.Anything, mock.Anything, f.narrative.ID).Return(f.narrative, nil).Once()
}

func chapterFrames(chapterID uuid.UUID, n int) []models.Frame {
	frames := make([]models.Frame, n)
	for i := range frames {
		frames[i] = models.Frame{ID: uuid.New(), ChapterID: chapterID, OrderIndex: i, MediaType: models.MediaTypeImage}
	}
	return frames
}

func ids(frames []models.Frame) []uuid.UUID {
	out := make([]uuid.UUID, len(frames))
	for i, f := range frames {
		out[i] = f.ID
	}
	return out
}

func assertContiguous(t *testing.T, frames []models.Frame) {
	t.Helper()
	for i, f := range frames {
		assert.Equal(t, i, f.OrderIndex, "frame %s", f.ID)
	}
}

func TestStoryEditor_ReorderFrames(t *testing.T) {
	ctx := context.Background()

	t.Run("reversed order is stored and returned contiguous", func(t *testing.T) {
		f := newEditorFixture(t)
		before := chapterFrames(f.chapter.ID, 4)
		order := []uuid.UUID{before[3].ID, before[2].ID, before[1].ID, before[0].ID}
		after := make([]models.Frame, len(order))
		for i, id := range order {
			after[i] = models.Frame{ID: id, ChapterID: f.chapter.ID, OrderIndex: i}
		}

		f.expectLockedChapter()
		f.frames.On("ListByChapter", mock.Anything, mock.Anything, f.chapter.ID).Return(before, nil).Once()
		f.frames.On("Reorder", mock.Anything, mock.Anything, f.chapter.ID, order).Return(nil).Once()
		f.frames.On("ListByChapter", mock.Anything, mock.Anything, f.chapter.ID).Return(after, nil).Once()

		got, err := f.editor.ReorderFrames(ctx, f.userID, f.chapter.ID, order)

		require.NoError(t, err)
		assert.Equal(t, order, ids(got))
		assertContiguous(t, got)
	})

	permutationCases := []struct {
		name  string
		order func(frames []models.Frame) []uuid.UUID
	}{
		{"missing frame", func(fr []models.Frame) []uuid.UUID { return []uuid.UUID{fr[1].ID, fr[0].ID} }},
		{"foreign frame", func(fr []models.Frame) []uuid.UUID { return []uuid.UUID{fr[0].ID, fr[1].ID, uuid.New()} }},
		{"duplicate frame", func(fr []models.Frame) []uuid.UUID { return []uuid.UUID{fr[0].ID, fr[0].ID, fr[2].ID} }},
	}
	for _, tc := range permutationCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newEditorFixture(t)
			before := chapterFrames(f.chapter.ID, 3)

			f.expectLockedChapter()
			f.frames.On("ListByChapter", mock.Anything, mock.Anything, f.chapter.ID).Return(before, nil).Once()

			_, err := f.editor.ReorderFrames(ctx, f.userID, f.chapter.ID, tc.order(before))

			assert.ErrorIs(t, err, models.ErrInvalidInput)
			f.frames.AssertNotCalled(t, "Reorder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("empty list is rejected before the transaction", func(t *testing.T) {
		f := newEditorFixture(t)

		_, err := f.editor.ReorderFrames(ctx, f.userID, f.chapter.ID, nil)

		assert.ErrorIs(t, err, models.ErrInvalidInput)
		f.tx.AssertNotCalled(t, "ExecuteInTransaction", mock.Anything)
	})

	t.Run("foreign chapter", func(t *testing.T) {
		f := newEditorFixture(t)
		f.narrative.UserID = uuid.New()
		f.expectLockedChapter()

		_, err := f.editor.ReorderFrames(ctx, f.userID, f.chapter.ID, []uuid.UUID{uuid.New()})

		assert.ErrorIs(t, err, models.ErrForbidden)
		f.frames.AssertNotCalled(t, "ListByChapter", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing chapter", func(t *testing.T) {
		f := newEditorFixture(t)
		f.tx.On("ExecuteInTransaction", mock.Anything).Return(nil).Once()
		f.chapters.On("GetForUpdate", mock.Anything, mock.Anything, f.chapter.ID).Return(nil, models.ErrNotFound).Once()

		_, err := f.editor.ReorderFrames(ctx, f.userID, f.chapter.ID, []uuid.UUID{uuid.New()})

		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newEditorFixture(t)
		before := chapterFrames(f.chapter.ID, 2)
		order := []uuid.UUID{before[1].ID, before[0].ID}

		f.expectLockedChapter()
		f.frames.On("ListByChapter", mock.Anything, mock.Anything, f.chapter.ID).Return(before, nil).Once()
		f.frames.On("Reorder", mock.Anything, mock.Anything, f.chapter.ID, order).Return(errors.New("deadlock detected")).Once()

		_, err := f.editor.ReorderFrames(ctx, f.userID, f.chapter.ID, order)

		assert.ErrorIs(t, err, models.ErrPersistenceFailure)
	})
}

func TestStoryEditor_InsertFrame(t *testing.T) {
	ctx := context.Background()

	t.Run("insert in the middle", func(t *testing.T) {
		f := newEditorFixture(t)
		f.expectLockedChapter()
		f.frames.On("ListByChapter", mock.Anything, mock.Anything, f.chapter.ID).Return(chapterFrames(f.chapter.ID, 3), nil).Once()
		f.frames.On("InsertAfter", mock.Anything, mock.Anything, mock.MatchedBy(func(fr *models.Frame) bool {
			return fr.ChapterID == f.chapter.ID && fr.NarrativeContent == "a quiet pause" && fr.MediaType == models.MediaTypeImage
		}), 1).Run(func(args mock.Arguments) {
			fr := args.Get(2).(*models.Frame)
			fr.ID = uuid.New()
			fr.OrderIndex = args.Int(3) + 1
		}).Return(nil).Once()

		frame, err := f.editor.InsertFrame(ctx, f.userID, f.chapter.ID, 1, "a quiet pause")

		require.NoError(t, err)
		assert.Equal(t, 2, frame.OrderIndex)
		assert.NotEqual(t, uuid.Nil, frame.ID)
	})

	t.Run("insert at the start of an empty chapter", func(t *testing.T) {
		f := newEditorFixture(t)
		f.expectLockedChapter()
		f.frames.On("ListByChapter", mock.Anything, mock.Anything, f.chapter.ID).Return([]models.Frame{}, nil).Once()
		f.frames.On("InsertAfter", mock.Anything, mock.Anything, mock.Anything, -1).Return(nil).Once()

		_, err := f.editor.InsertFrame(ctx, f.userID, f.chapter.ID, -1, "")

		require.NoError(t, err)
	})

	for _, idx := range []int{-2, 3} {
		t.Run("index out of range", func(t *testing.T) {
			f := newEditorFixture(t)
			f.expectLockedChapter()
			f.frames.On("ListByChapter", mock.Anything, mock.Anything, f.chapter.ID).Return(chapterFrames(f.chapter.ID, 3), nil).Once()

			_, err := f.editor.InsertFrame(ctx, f.userID, f.chapter.ID, idx, "x")

			assert.ErrorIs(t, err, models.ErrInvalidInput)
			f.frames.AssertNotCalled(t, "InsertAfter", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("transaction cannot start", func(t *testing.T) {
		f := newEditorFixture(t)
		f.tx.On("ExecuteInTransaction", mock.Anything).Return(errors.New("pool closed")).Once()

		_, err := f.editor.InsertFrame(ctx, f.userID, f.chapter.ID, 0, "x")

		assert.ErrorIs(t, err, models.ErrPersistenceFailure)
	})
}

func TestStoryEditor_UpdateFrameContent(t *testing.T) {
	ctx := context.Background()
	frameID := uuid.New()

	t.Run("owner edits text", func(t *testing.T) {
		f := newEditorFixture(t)
		f.frames.On("GetWithContext", mock.Anything, mock.Anything, frameID).
			Return(&models.FrameContext{Narrative: *f.narrative}, nil).Once()
		f.frames.On("UpdateContent", mock.Anything, mock.Anything, frameID, "new text").Return(nil).Once()

		require.NoError(t, f.editor.UpdateFrameContent(ctx, f.userID, frameID, "new text"))
	})

	t.Run("other user", func(t *testing.T) {
		f := newEditorFixture(t)
		f.frames.On("GetWithContext", mock.Anything, mock.Anything, frameID).
			Return(&models.FrameContext{Narrative: models.Narrative{UserID: uuid.New()}}, nil).Once()

		err := f.editor.UpdateFrameContent(ctx, f.userID, frameID, "new text")

		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestStoryEditor_NarrativeState(t *testing.T) {
	ctx := context.Background()

	t.Run("publish", func(t *testing.T) {
		f := newEditorFixture(t)
		f.narratives.On("GetByID", mock.Anything, mock.Anything, f.narrative.ID).Return(f.narrative, nil).Once()
		f.narratives.On("UpdateStatus", mock.Anything, mock.Anything, f.narrative.ID, models.NarrativeStatusPublished).Return(nil).Once()

		n, err := f.editor.UpdateStatus(ctx, f.userID, f.narrative.ID, models.NarrativeStatusPublished)

		require.NoError(t, err)
		assert.Equal(t, models.NarrativeStatusPublished, n.Status)
	})

	t.Run("unknown status never reaches storage", func(t *testing.T) {
		f := newEditorFixture(t)

		_, err := f.editor.UpdateStatus(ctx, f.userID, f.narrative.ID, "deleted")

		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("make public", func(t *testing.T) {
		f := newEditorFixture(t)
		f.narratives.On("GetByID", mock.Anything, mock.Anything, f.narrative.ID).Return(f.narrative, nil).Once()
		f.narratives.On("UpdateVisibility", mock.Anything, mock.Anything, f.narrative.ID, true).Return(nil).Once()

		n, err := f.editor.UpdateVisibility(ctx, f.userID, f.narrative.ID, true)

		require.NoError(t, err)
		assert.True(t, n.IsPublic)
	})

	t.Run("foreign narrative", func(t *testing.T) {
		f := newEditorFixture(t)
		f.narrative.UserID = uuid.New()
		f.narratives.On("GetByID", mock.Anything, mock.Anything, f.narrative.ID).Return(f.narrative, nil).Once()

		_, err := f.editor.UpdateVisibility(ctx, f.userID, f.narrative.ID, true)

		assert.ErrorIs(t, err, models.ErrForbidden)
		f.narratives.AssertNotCalled(t, "UpdateVisibility", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing narrative", func(t *testing.T) {
		f := newEditorFixture(t)
		f.narratives.On("GetByID", mock.Anything, mock.Anything, f.narrative.ID).Return(nil, models.ErrNotFound).Once()

		_, err := f.editor.UpdateStatus(ctx, f.userID, f.narrative.ID, models.NarrativeStatusArchived)

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
