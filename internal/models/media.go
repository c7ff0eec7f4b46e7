package models

import "github.com/google/uuid"

// ImageResult - результат генерации изображения.
type ImageResult struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// VideoParams - параметры генерации видео.
type VideoParams struct {
	Prompt      string
	AspectRatio string
	Duration    int
	Model       string
}

// VideoResult - результат генерации видео.
type VideoResult struct {
	URL         string `json:"url"`
	Model       string `json:"model"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspectRatio"`
}

// CoverParams - параметры генерации обложки.
type CoverParams struct {
	NarrativeID uuid.UUID
	Title       string
	Description string
}

// CoverResult - результат генерации обложки.
type CoverResult struct {
	CoverURL string `json:"coverUrl"`
	Prompt   string `json:"prompt"`
}

// AssistBeat - текущий бит фреймворка, над которым работает автор.
type AssistBeat struct {
	BeatName     string `json:"beat_name"`
	GuidanceText string `json:"guidance_text"`
}

// AssistFrame - предыдущий кадр, передаваемый как контекст.
type AssistFrame struct {
	NarrativeContent string `json:"narrative_content"`
}

// AssistRequest - запрос к помощнику автора.
type AssistRequest struct {
	NarrativeID    *uuid.UUID    `json:"narrativeId,omitempty"`
	CurrentBeat    *AssistBeat   `json:"currentBeat,omitempty"`
	PreviousFrames []AssistFrame `json:"previousFrames,omitempty"`
	UserPrompt     string        `json:"userPrompt"`
}
