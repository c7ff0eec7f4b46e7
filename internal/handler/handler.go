package handler

import (
	"fmt"
	"net/http"
	"strings"

	"storyframe-server/internal/auth"
	"storyframe-server/internal/models"
	"storyframe-server/internal/prompt"
	"storyframe-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FunctionsHandler обслуживает маршруты /api/v1/functions и правки историй.
type FunctionsHandler struct {
	stories  service.StoryGenerator
	regen    service.BeatRegenerator
	media    service.MediaService
	covers   service.CoverService
	assist   service.AssistService
	editor   service.StoryEditor
	verifier auth.TokenVerifier
	logger   *zap.Logger
}

// Services группирует сервисы, которые нужны обработчику.
type Services struct {
	Stories service.StoryGenerator
	Regen   service.BeatRegenerator
	Media   service.MediaService
	Covers  service.CoverService
	Assist  service.AssistService
	Editor  service.StoryEditor
}

func NewFunctionsHandler(services Services, verifier auth.TokenVerifier, logger *zap.Logger) *FunctionsHandler {
	return &FunctionsHandler{
		stories:  services.Stories,
		regen:    services.Regen,
		media:    services.Media,
		covers:   services.Covers,
		assist:   services.Assist,
		editor:   services.Editor,
		verifier: verifier,
		logger:   logger.Named("FunctionsHandler"),
	}
}

// RegisterRoutes регистрирует маршруты под /api/v1.
func (h *FunctionsHandler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/v1", AuthMiddleware(h.verifier, h.logger))

	functions := api.Group("/functions")
	{
		functions.POST("/generate-story", h.generateStory)
		functions.POST("/regenerate-beat", h.regenerateBeat)
		functions.POST("/generate-image", h.generateImage)
		functions.POST("/generate-video", h.generateVideo)
		functions.POST("/generate-story-cover", h.generateStoryCover)
		functions.POST("/ai-story-assist", h.aiStoryAssist)
		functions.GET("/frameworks", h.listFrameworks)
	}

	api.PATCH("/stories/:narrativeId/status", h.updateStatus)
	api.PATCH("/stories/:narrativeId/visibility", h.updateVisibility)
	api.PUT("/chapters/:chapterId/frame-order", h.reorderFrames)
	api.POST("/chapters/:chapterId/frames", h.insertFrame)
	api.PATCH("/frames/:frameId", h.updateFrame)
}

// bindJSON декодирует тело запроса; при ошибке ответ уже отправлен.
func (h *FunctionsHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		handleServiceError(c, fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidInput, err), h.logger)
		return false
	}
	return true
}

// pathUUID разбирает UUID из параметра пути; при ошибке ответ уже отправлен.
func (h *FunctionsHandler) pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: %s must be a valid UUID", models.ErrInvalidInput, param), h.logger)
		return uuid.Nil, false
	}
	return id, true
}

func (h *FunctionsHandler) currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := userIDFrom(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized, h.logger)
	}
	return userID, ok
}

func (h *FunctionsHandler) generateStory(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var brief models.StoryBrief
	if !h.bindJSON(c, &brief) {
		return
	}

	result, err := h.stories.GenerateStory(c.Request.Context(), userID, brief)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, GenerateStoryResponse{
		Success:     true,
		NarrativeID: result.NarrativeID.String(),
		Title:       result.Title,
		BeatCount:   result.BeatCount,
	})
}

func (h *FunctionsHandler) regenerateBeat(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req RegenerateBeatRequest
	if !h.bindJSON(c, &req) {
		return
	}
	frameID, err := uuid.Parse(strings.TrimSpace(req.FrameID))
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: frameId must be a valid UUID", models.ErrInvalidInput), h.logger)
		return
	}

	var mods models.BeatModifications
	if req.Modifications != nil {
		mods.Narrative = req.Modifications.Narrative
		mods.AdditionalNotes = req.Modifications.AdditionalNotes
	}

	visualPrompt, err := h.regen.RegenerateBeat(c.Request.Context(), userID, frameID, mods)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, RegenerateBeatResponse{Success: true, VisualPrompt: visualPrompt})
}

func (h *FunctionsHandler) generateImage(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req GenerateImageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.media.GenerateImage(c.Request.Context(), userID, req.Prompt, req.AspectRatio)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FunctionsHandler) generateVideo(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req GenerateVideoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	params := models.VideoParams{Prompt: req.Prompt, AspectRatio: req.AspectRatio, Model: req.Model}
	if req.Duration != nil {
		// Явный 0 не подменяется значением по умолчанию.
		if *req.Duration == 0 {
			handleServiceError(c, fmt.Errorf("%w: duration must be 4, 6, or 8 seconds", models.ErrInvalidInput), h.logger)
			return
		}
		params.Duration = *req.Duration
	}

	result, err := h.media.GenerateVideo(c.Request.Context(), userID, params)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FunctionsHandler) generateStoryCover(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req GenerateCoverRequest
	if !h.bindJSON(c, &req) {
		return
	}
	narrativeID, err := uuid.Parse(strings.TrimSpace(req.NarrativeID))
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: narrative_id must be a valid UUID", models.ErrInvalidInput), h.logger)
		return
	}

	result, err := h.covers.GenerateCover(c.Request.Context(), userID, models.CoverParams{
		NarrativeID: narrativeID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FunctionsHandler) aiStoryAssist(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req models.AssistRequest
	if !h.bindJSON(c, &req) {
		return
	}

	suggestion, err := h.assist.Suggest(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, AssistResponse{Suggestion: suggestion})
}

func (h *FunctionsHandler) listFrameworks(c *gin.Context) {
	c.JSON(http.StatusOK, FrameworksResponse{
		Frameworks: prompt.Frameworks(),
		Audiences:  prompt.AudienceHints(),
	})
}
