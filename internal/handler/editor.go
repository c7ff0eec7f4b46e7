package handler

import (
	"fmt"
	"net/http"
	"strings"

	"storyframe-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *FunctionsHandler) reorderFrames(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	chapterID, ok := h.pathUUID(c, "chapterId")
	if !ok {
		return
	}
	var req ReorderFramesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ids := make([]uuid.UUID, len(req.FrameIDs))
	for i, raw := range req.FrameIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			handleServiceError(c, fmt.Errorf("%w: frame_ids[%d] must be a valid UUID", models.ErrInvalidInput, i), h.logger)
			return
		}
		ids[i] = id
	}

	frames, err := h.editor.ReorderFrames(c.Request.Context(), userID, chapterID, ids)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	resp := FramesResponse{Frames: make([]FrameDTO, len(frames))}
	for i, f := range frames {
		resp.Frames[i] = toFrameDTO(f)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FunctionsHandler) insertFrame(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	chapterID, ok := h.pathUUID(c, "chapterId")
	if !ok {
		return
	}
	var req InsertFrameRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.AfterIndex == nil {
		handleServiceError(c, fmt.Errorf("%w: after_index is required", models.ErrInvalidInput), h.logger)
		return
	}

	frame, err := h.editor.InsertFrame(c.Request.Context(), userID, chapterID, *req.AfterIndex, req.NarrativeContent)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, toFrameDTO(*frame))
}

func (h *FunctionsHandler) updateFrame(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	frameID, ok := h.pathUUID(c, "frameId")
	if !ok {
		return
	}
	var req UpdateFrameRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.NarrativeContent == nil {
		handleServiceError(c, fmt.Errorf("%w: narrative_content is required", models.ErrInvalidInput), h.logger)
		return
	}

	if err := h.editor.UpdateFrameContent(c.Request.Context(), userID, frameID, *req.NarrativeContent); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FunctionsHandler) updateStatus(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	narrativeID, ok := h.pathUUID(c, "narrativeId")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	status := models.NarrativeStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	narrative, err := h.editor.UpdateStatus(c.Request.Context(), userID, narrativeID, status)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, toNarrativeState(narrative))
}

func (h *FunctionsHandler) updateVisibility(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	narrativeID, ok := h.pathUUID(c, "narrativeId")
	if !ok {
		return
	}
	var req UpdateVisibilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.IsPublic == nil {
		handleServiceError(c, fmt.Errorf("%w: is_public is required", models.ErrInvalidInput), h.logger)
		return
	}

	narrative, err := h.editor.UpdateVisibility(c.Request.Context(), userID, narrativeID, *req.IsPublic)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, toNarrativeState(narrative))
}
