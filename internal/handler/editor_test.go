package handler_test

import (
	"net/http"
	"testing"

	"storyframe-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReorderFramesHandler(t *testing.T) {
	chapterID := uuid.New()
	path := "/api/v1/chapters/" + chapterID.String() + "/frame-order"

	t.Run("returns frames in new order", func(t *testing.T) {
		env := newTestEnv(t)
		a, b := uuid.New(), uuid.New()
		env.editor.On("ReorderFrames", mock.Anything, env.userID, chapterID, []uuid.UUID{b, a}).
			Return([]models.Frame{
				{ID: b, ChapterID: chapterID, OrderIndex: 0, NarrativeContent: "second", MediaType: models.MediaTypeImage},
				{ID: a, ChapterID: chapterID, OrderIndex: 1, NarrativeContent: "first", MediaType: models.MediaTypeVideo, Duration: 6},
			}, nil).Once()

		rec := env.request(t, http.MethodPut, path, validToken, map[string]any{"frame_ids": []string{b.String(), a.String()}})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"frames":[
			{"id":"`+b.String()+`","chapter_id":"`+chapterID.String()+`","order_index":0,"narrative_content":"second","media_type":"image","duration":0},
			{"id":"`+a.String()+`","chapter_id":"`+chapterID.String()+`","order_index":1,"narrative_content":"first","media_type":"video","duration":6}
		]}`, rec.Body.String())
	})

	t.Run("invalid frame id", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.request(t, http.MethodPut, path, validToken, `{"frame_ids":["nope"]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid chapter id", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.request(t, http.MethodPut, "/api/v1/chapters/abc/frame-order", validToken, `{"frame_ids":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign chapter", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()
		env.editor.On("ReorderFrames", mock.Anything, env.userID, chapterID, []uuid.UUID{id}).
			Return(nil, models.ErrForbidden).Once()

		rec := env.request(t, http.MethodPut, path, validToken, map[string]any{"frame_ids": []string{id.String()}})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("requires token", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.request(t, http.MethodPut, path, "", `{"frame_ids":[]}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestInsertFrameHandler(t *testing.T) {
	chapterID := uuid.New()
	path := "/api/v1/chapters/" + chapterID.String() + "/frames"

	t.Run("created", func(t *testing.T) {
		env := newTestEnv(t)
		frameID := uuid.New()
		env.editor.On("InsertFrame", mock.Anything, env.userID, chapterID, -1, "opening").
			Return(&models.Frame{ID: frameID, ChapterID: chapterID, OrderIndex: 0, NarrativeContent: "opening", MediaType: models.MediaTypeImage}, nil).Once()

		rec := env.request(t, http.MethodPost, path, validToken, `{"after_index":-1,"narrative_content":"opening"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"order_index":0`)
		assert.Contains(t, rec.Body.String(), frameID.String())
	})

	t.Run("after_index is required", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.request(t, http.MethodPost, path, validToken, `{"narrative_content":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("out of range index", func(t *testing.T) {
		env := newTestEnv(t)
		env.editor.On("InsertFrame", mock.Anything, env.userID, chapterID, 9, "").
			Return(nil, models.ErrInvalidInput).Once()

		rec := env.request(t, http.MethodPost, path, validToken, `{"after_index":9}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateFrameHandler(t *testing.T) {
	frameID := uuid.New()
	path := "/api/v1/frames/" + frameID.String()

	t.Run("no content", func(t *testing.T) {
		env := newTestEnv(t)
		env.editor.On("UpdateFrameContent", mock.Anything, env.userID, frameID, "edited").Return(nil).Once()

		rec := env.request(t, http.MethodPatch, path, validToken, `{"narrative_content":"edited"}`)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing frame", func(t *testing.T) {
		env := newTestEnv(t)
		env.editor.On("UpdateFrameContent", mock.Anything, env.userID, frameID, "").Return(models.ErrNotFound).Once()

		rec := env.request(t, http.MethodPatch, path, validToken, `{"narrative_content":""}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("content is required", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.request(t, http.MethodPatch, path, validToken, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNarrativeStateHandlers(t *testing.T) {
	narrativeID := uuid.New()
	base := "/api/v1/stories/" + narrativeID.String()

	t.Run("status is normalized", func(t *testing.T) {
		env := newTestEnv(t)
		env.editor.On("UpdateStatus", mock.Anything, env.userID, narrativeID, models.NarrativeStatusPublished).
			Return(&models.Narrative{ID: narrativeID, Status: models.NarrativeStatusPublished, IsPublic: true}, nil).Once()

		rec := env.request(t, http.MethodPatch, base+"/status", validToken, `{"status":" Published "}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"`+narrativeID.String()+`","status":"published","is_public":true}`, rec.Body.String())
	})

	t.Run("unknown status", func(t *testing.T) {
		env := newTestEnv(t)
		env.editor.On("UpdateStatus", mock.Anything, env.userID, narrativeID, models.NarrativeStatus("deleted")).
			Return(nil, models.ErrInvalidInput).Once()

		rec := env.request(t, http.MethodPatch, base+"/status", validToken, `{"status":"deleted"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("visibility", func(t *testing.T) {
		env := newTestEnv(t)
		env.editor.On("UpdateVisibility", mock.Anything, env.userID, narrativeID, false).
			Return(&models.Narrative{ID: narrativeID, Status: models.NarrativeStatusDraft}, nil).Once()

		rec := env.request(t, http.MethodPatch, base+"/visibility", validToken, `{"is_public":false}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"`+narrativeID.String()+`","status":"draft","is_public":false}`, rec.Body.String())
	})

	t.Run("visibility flag is required", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.request(t, http.MethodPatch, base+"/visibility", validToken, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign narrative", func(t *testing.T) {
		env := newTestEnv(t)
		env.editor.On("UpdateVisibility", mock.Anything, env.userID, narrativeID, true).
			Return(nil, models.ErrForbidden).Once()

		rec := env.request(t, http.MethodPatch, base+"/visibility", validToken, `{"is_public":true}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
