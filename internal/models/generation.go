package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxThemeLength - максимальная длина темы истории в символах.
const MaxThemeLength = 500

// StoryBrief - входные данные для генерации истории.
type StoryBrief struct {
	Theme          string `json:"theme"`
	TargetAudience string `json:"targetAudience"`
	Framework      string `json:"framework"`
	StoryLength    string `json:"storyLength"`
	VisualStyle    string `json:"visualStyle,omitempty"`
}

// Validate проверяет обязательные поля брифа.
func (b StoryBrief) Validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(b.Theme) == "" {
		missing = append(missing, "theme")
	}
	if strings.TrimSpace(b.TargetAudience) == "" {
		missing = append(missing, "targetAudience")
	}
	if strings.TrimSpace(b.Framework) == "" {
		missing = append(missing, "framework")
	}
	if strings.TrimSpace(b.StoryLength) == "" {
		missing = append(missing, "storyLength")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if utf8.RuneCountInString(b.Theme) > MaxThemeLength {
		return fmt.Errorf("%w: theme must be at most %d characters", ErrInvalidInput, MaxThemeLength)
	}
	return nil
}

// Тип медиа бита в ответе модели.
const (
	BeatMediaImage = "IMAGE"
	BeatMediaVideo = "VIDEO"
)

// Beat - структурная единица истории, возвращаемая моделью.
type Beat struct {
	BeatNumber      int    `json:"beat_number"`
	Title           string `json:"title"`
	NarrativeText   string `json:"narrative_text"`
	MediaType       string `json:"media_type"`
	DurationSeconds int    `json:"duration_seconds"`
	VisualConcept   string `json:"visual_concept"`
}

// StoryStructure - разобранный ответ модели на этапе структуры.
type StoryStructure struct {
	StoryTitle       string `json:"story_title"`
	StoryDescription string `json:"story_description"`
	Beats            []Beat `json:"beats"`
}

// VisualPrompt - результат этапа визуальных промптов для одного бита.
// Degraded=true означает, что вместо ответа модели подставлен запасной текст.
type VisualPrompt struct {
	Content  string
	Degraded bool
}

// BeatModifications - правки пользователя при перегенерации бита.
type BeatModifications struct {
	Narrative       *string `json:"narrative,omitempty"`
	AdditionalNotes *string `json:"additionalNotes,omitempty"`
}

// GenerationResult - итог GenerateStory.
type GenerationResult struct {
	NarrativeID uuid.UUID
	Title       string
	BeatCount   int
	Degraded    int // количество битов с запасным визуальным промптом
}
