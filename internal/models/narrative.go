package models

import (
	"time"

	"github.com/google/uuid"
)

// NarrativeStatus - статус истории.
type NarrativeStatus string

const (
	NarrativeStatusDraft     NarrativeStatus = "draft"
	NarrativeStatusPublished NarrativeStatus = "published"
	NarrativeStatusArchived  NarrativeStatus = "archived"
)

// Valid сообщает, допустим ли статус.
func (s NarrativeStatus) Valid() bool {
	switch s {
	case NarrativeStatusDraft, NarrativeStatusPublished, NarrativeStatusArchived:
		return true
	}
	return false
}

// Источник создания истории.
const (
	GeneratedByAI     = "ai"
	GeneratedByManual = "manual"
)

// MediaType - тип медиа кадра в том виде, в каком он хранится в БД.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// OperationType - тип записи в журнале генераций.
type OperationType string

const (
	OperationStoryStructure OperationType = "story_structure"
	OperationVisualPrompts  OperationType = "visual_prompts"
	OperationRegenerateBeat OperationType = "regenerate_beat"
)

// GenerationMetadata хранится в narratives.generation_metadata (jsonb).
type GenerationMetadata struct {
	Framework   string    `json:"framework"`
	StoryLength string    `json:"story_length"`
	BeatCount   int       `json:"beat_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Narrative - история верхнего уровня.
type Narrative struct {
	ID                 uuid.UUID           `db:"id"`
	UserID             uuid.UUID           `db:"user_id"`
	Title              string              `db:"title"`
	Description        string              `db:"description"`
	Status             NarrativeStatus     `db:"status"`
	IsPublic           bool                `db:"is_public"`
	GeneratedBy        string              `db:"generated_by"`
	GenerationPrompt   *string             `db:"generation_prompt"`
	TargetAudience     *string             `db:"target_audience"`
	VisualStyle        *string             `db:"visual_style"`
	GenerationMetadata *GenerationMetadata `db:"generation_metadata"`
	ThumbnailURL       *string             `db:"thumbnail_url"`
	AICoverPrompt      *string             `db:"ai_cover_prompt"`
	CreatedAt          time.Time           `db:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at"`
}

// Chapter - упорядоченная группа кадров внутри истории.
type Chapter struct {
	ID          uuid.UUID `db:"id"`
	NarrativeID uuid.UUID `db:"narrative_id"`
	Title       string    `db:"title"`
	OrderIndex  int       `db:"order_index"`
	CreatedAt   time.Time `db:"created_at"`
}

// PromptHistoryEntry - элемент frames.ai_prompt_history.
type PromptHistoryEntry struct {
	Timestamp     time.Time          `json:"timestamp"`
	Prompt        string             `json:"prompt"`
	Modifications *BeatModifications `json:"modifications,omitempty"`
}

// Frame - кадр истории: один бит повествования и визуальный промпт к нему.
// order_index уникален в пределах главы и идет подряд с нуля.
type Frame struct {
	ID               uuid.UUID            `db:"id"`
	ChapterID        uuid.UUID            `db:"chapter_id"`
	OrderIndex       int                  `db:"order_index"`
	NarrativeContent string               `db:"narrative_content"`
	BeatTitle        string               `db:"beat_title"`
	VisualPrompt     string               `db:"visual_prompt"`
	MediaType        MediaType            `db:"media_type"`
	MediaURL         *string              `db:"media_url"`
	Duration         int                  `db:"duration"`
	AIPromptHistory  []PromptHistoryEntry `db:"ai_prompt_history"`
	CreatedAt        time.Time            `db:"created_at"`
	UpdatedAt        time.Time            `db:"updated_at"`
}

// FrameContext - кадр вместе с главой и историей, которым он принадлежит.
type FrameContext struct {
	Frame     Frame
	Chapter   Chapter
	Narrative Narrative
}

// GenerationLogEntry - неизменяемая запись журнала генераций.
type GenerationLogEntry struct {
	ID            uuid.UUID     `db:"id"`
	UserID        uuid.UUID     `db:"user_id"`
	NarrativeID   *uuid.UUID    `db:"narrative_id"`
	OperationType OperationType `db:"operation_type"`
	ModelUsed     string        `db:"model_used"`
	PromptPreview string        `db:"prompt_preview"`
	CreatedAt     time.Time     `db:"created_at"`
}
