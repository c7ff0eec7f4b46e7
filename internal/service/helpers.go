package service

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"storyframe-server/internal/messaging"

	"go.uber.org/zap"
)

const (
	// DefaultDailyStoryQuota - лимит генераций историй за скользящие 24 часа.
	DefaultDailyStoryQuota = 10
	quotaWindow            = 24 * time.Hour
	promptPreviewLimit     = 200
	defaultBeatCount       = 8
	defaultVideoDuration   = 6
	eventPublishTimeout    = 10 * time.Second
	lockReleaseTimeout     = 5 * time.Second
)

// beatCountForLength переводит выбранную длину истории в число битов.
// Принимаются как полные подписи ("Short (5-7 beats)"), так и короткие ("short").
func beatCountForLength(length string) int {
	fields := strings.Fields(strings.ToLower(length))
	if len(fields) == 0 {
		return defaultBeatCount
	}
	switch fields[0] {
	case "short":
		return 6
	case "medium":
		return 10
	case "long":
		return 15
	default:
		return defaultBeatCount
	}
}

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// stripCodeFence снимает один слой markdown-разметки ```json ... ``` с ответа модели.
func stripCodeFence(response string) string {
	if m := codeFencePattern.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}

// truncateRunes обрезает строку до limit символов, не разрывая UTF-8.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func validVideoDuration(d int) bool {
	return d == 4 || d == 6 || d == 8
}

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func stringOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// publishEvent публикует событие, не влияя на результат операции.
func publishEvent(ctx context.Context, publisher messaging.EventPublisher, event messaging.StoryEvent, logger *zap.Logger) {
	if publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := publisher.PublishStoryEvent(pubCtx, event); err != nil {
		logger.Warn("Failed to publish story event",
			zap.String("eventType", string(event.EventType)),
			zap.String("narrativeID", event.NarrativeID.String()),
			zap.Error(err),
		)
	}
}
