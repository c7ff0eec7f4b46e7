package service

import (
	"context"
	"fmt"
	"time"

	"storyframe-server/internal/ai"
	"storyframe-server/internal/models"

	"go.uber.org/zap"
)

// VideoJobState - состояние задачи генерации видео.
type VideoJobState string

const (
	VideoJobSubmitted VideoJobState = "submitted"
	VideoJobPolling   VideoJobState = "polling"
	VideoJobSucceeded VideoJobState = "succeeded"
	VideoJobFailed    VideoJobState = "failed"
	VideoJobTimedOut  VideoJobState = "timed_out"
)

var videoJobTransitions = map[VideoJobState][]VideoJobState{
	"":                {VideoJobSubmitted},
	VideoJobSubmitted: {VideoJobPolling},
	VideoJobPolling:   {VideoJobPolling, VideoJobSucceeded, VideoJobFailed, VideoJobTimedOut},
}

// SleepFunc ждет d или отмены контекста.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext - SleepFunc на таймере.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// VideoJob - одна задача генерации видео: отправка и ограниченный опрос.
// Не предназначена для повторного использования.
type VideoJob struct {
	generator   ai.VideoGenerator
	interval    time.Duration
	maxAttempts int
	sleep       SleepFunc
	logger      *zap.Logger

	state     VideoJobState
	operation string
	attempts  int
	history   []VideoJobState
}

func NewVideoJob(generator ai.VideoGenerator, interval time.Duration, maxAttempts int, sleep SleepFunc, logger *zap.Logger) *VideoJob {
	if sleep == nil {
		sleep = SleepContext
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &VideoJob{
		generator:   generator,
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleep,
		logger:      logger.Named("VideoJob"),
	}
}

func (j *VideoJob) State() VideoJobState { return j.state }

func (j *VideoJob) Attempts() int { return j.attempts }

// Operation - имя долгой операции у провайдера, пусто до отправки.
func (j *VideoJob) Operation() string { return j.operation }

// History возвращает все пройденные состояния по порядку.
func (j *VideoJob) History() []VideoJobState {
	out := make([]VideoJobState, len(j.history))
	copy(out, j.history)
	return out
}

func (j *VideoJob) transition(to VideoJobState) {
	for _, allowed := range videoJobTransitions[j.state] {
		if allowed == to {
			j.state = to
			j.history = append(j.history, to)
			return
		}
	}
	panic(fmt.Sprintf("illegal video job transition %q -> %q", j.state, to))
}

// Run отправляет задачу и опрашивает ее каждые interval, не более maxAttempts раз.
// Ошибка опроса считается попыткой. По исчерпании попыток - models.ErrGenerationTimedOut.
func (j *VideoJob) Run(ctx context.Context, req ai.VideoRequest) (*ai.MediaAsset, error) {
	operation, err := j.generator.SubmitVideo(ctx, req)
	if err != nil {
		return nil, err
	}
	j.operation = operation
	j.transition(VideoJobSubmitted)
	log := j.logger.With(zap.String("operation", operation), zap.String("model", req.Model))
	log.Info("Video generation submitted")

	j.transition(VideoJobPolling)
	defer func() {
		if j.state != VideoJobPolling {
			videoJobAttempts.Observe(float64(j.attempts))
		}
	}()

	for j.attempts < j.maxAttempts {
		if err := j.sleep(ctx, j.interval); err != nil {
			return nil, err
		}
		j.attempts++

		status, err := j.generator.PollVideo(ctx, operation)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn("Video status check failed", zap.Int("attempt", j.attempts), zap.Error(err))
			j.transition(VideoJobPolling)
			continue
		}
		if !status.Done {
			log.Debug("Video still processing", zap.Int("attempt", j.attempts))
			j.transition(VideoJobPolling)
			continue
		}

		if status.FailureReason != "" {
			j.transition(VideoJobFailed)
			log.Error("Video generation failed", zap.String("reason", status.FailureReason))
			return nil, fmt.Errorf("%w: video generation failed: %s", models.ErrUpstreamFailure, status.FailureReason)
		}
		if status.Asset == nil || len(status.Asset.Data) == 0 {
			j.transition(VideoJobFailed)
			log.Error("Video operation finished without a video")
			return nil, fmt.Errorf("%w: no video in response", models.ErrUpstreamFailure)
		}

		j.transition(VideoJobSucceeded)
		log.Info("Video generated", zap.Int("attempts", j.attempts), zap.Int("bytes", len(status.Asset.Data)))
		return status.Asset, nil
	}

	j.transition(VideoJobTimedOut)
	log.Error("Video generation timed out", zap.Int("attempts", j.attempts))
	return nil, fmt.Errorf("%w: video not ready after %d attempts", models.ErrGenerationTimedOut, j.maxAttempts)
}
