package handler

import (
	"storyframe-server/internal/models"
	"storyframe-server/internal/prompt"
)

// GenerateStoryResponse - ответ POST /generate-story.
type GenerateStoryResponse struct {
	Success     bool   `json:"success"`
	NarrativeID string `json:"narrative_id"`
	Title       string `json:"title"`
	BeatCount   int    `json:"beat_count"`
}

// RegenerateBeatRequest - тело POST /regenerate-beat.
type RegenerateBeatRequest struct {
	FrameID       string                `json:"frameId"`
	Modifications *BeatModificationsDTO `json:"modifications,omitempty"`
}

type BeatModificationsDTO struct {
	Narrative       *string `json:"narrative,omitempty"`
	AdditionalNotes *string `json:"additionalNotes,omitempty"`
}

type RegenerateBeatResponse struct {
	Success      bool   `json:"success"`
	VisualPrompt string `json:"visual_prompt"`
}

// GenerateImageRequest - тело POST /generate-image.
type GenerateImageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// GenerateVideoRequest - тело POST /generate-video.
// Duration - указатель: явный 0 отличается от отсутствующего поля.
type GenerateVideoRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Duration    *int   `json:"duration,omitempty"`
	Model       string `json:"model,omitempty"`
}

// GenerateCoverRequest - тело POST /generate-story-cover.
type GenerateCoverRequest struct {
	NarrativeID string `json:"narrative_id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type AssistResponse struct {
	Suggestion string `json:"suggestion"`
}

// FrameworksResponse - справочник фреймворков и подсказок по аудитории.
type FrameworksResponse struct {
	Frameworks []prompt.Framework    `json:"frameworks"`
	Audiences  []prompt.AudienceHint `json:"audiences"`
}

// ReorderFramesRequest - тело PUT /chapters/:chapterId/frame-order.
type ReorderFramesRequest struct {
	FrameIDs []string `json:"frame_ids"`
}

// InsertFrameRequest - тело POST /chapters/:chapterId/frames.
// AfterIndex обязателен: -1 вставляет кадр в начало главы.
type InsertFrameRequest struct {
	AfterIndex       *int   `json:"after_index"`
	NarrativeContent string `json:"narrative_content"`
}

type UpdateFrameRequest struct {
	NarrativeContent *string `json:"narrative_content"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateVisibilityRequest struct {
	IsPublic *bool `json:"is_public"`
}

// FrameDTO - кадр в ответах редактора.
type FrameDTO struct {
	ID               string `json:"id"`
	ChapterID        string `json:"chapter_id"`
	OrderIndex       int    `json:"order_index"`
	NarrativeContent string `json:"narrative_content"`
	BeatTitle        string `json:"beat_title,omitempty"`
	VisualPrompt     string `json:"visual_prompt,omitempty"`
	MediaType        string `json:"media_type"`
	Duration         int    `json:"duration"`
}

type FramesResponse struct {
	Frames []FrameDTO `json:"frames"`
}

// NarrativeStateResponse - статус и видимость истории после правки.
type NarrativeStateResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	IsPublic bool   `json:"is_public"`
}

func toFrameDTO(f models.Frame) FrameDTO {
	return FrameDTO{
		ID:               f.ID.String(),
		ChapterID:        f.ChapterID.String(),
		OrderIndex:       f.OrderIndex,
		NarrativeContent: f.NarrativeContent,
		BeatTitle:        f.BeatTitle,
		VisualPrompt:     f.VisualPrompt,
		MediaType:        string(f.MediaType),
		Duration:         f.Duration,
	}
}

func toNarrativeState(n *models.Narrative) NarrativeStateResponse {
	return NarrativeStateResponse{ID: n.ID.String(), Status: string(n.Status), IsPublic: n.IsPublic}
}
