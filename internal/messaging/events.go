package messaging

import (
	"time"

	"github.com/google/uuid"
)

// StoryEventType - тип доменного события.
type StoryEventType string

const (
	EventStoryGenerated  StoryEventType = "story.generated"
	EventBeatRegenerated StoryEventType = "beat.regenerated"
	EventCoverGenerated  StoryEventType = "cover.generated"
)

// StoryEvent - сообщение, публикуемое после успешной операции над историей.
type StoryEvent struct {
	EventID     string         `json:"event_id"`
	EventType   StoryEventType `json:"event_type"`
	UserID      uuid.UUID      `json:"user_id"`
	NarrativeID uuid.UUID      `json:"narrative_id"`
	FrameID     *uuid.UUID     `json:"frame_id,omitempty"`
	BeatCount   int            `json:"beat_count,omitempty"`
	Degraded    int            `json:"degraded_beats,omitempty"`
	CoverURL    string         `json:"cover_url,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// NewStoryEvent заполняет идентификатор и время события.
func NewStoryEvent(eventType StoryEventType, userID, narrativeID uuid.UUID) StoryEvent {
	return StoryEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		UserID:      userID,
		NarrativeID: narrativeID,
		OccurredAt:  time.Now().UTC(),
	}
}
