package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyframe-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	backendGenAI      = "genai"
	defaultVideoMIME  = "video/mp4"
	defaultVideoRes   = "720p"
	videoCountPerCall = 1
)

var mediaGenerationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storyframe_media_generations_total",
		Help: "Total number of image/video generation calls.",
	},
	[]string{"kind", "status"},
)

// GenAIMediaClient генерирует изображения (Gemini) и видео (Veo) через Google GenAI.
type GenAIMediaClient struct {
	client     *genai.Client
	imageModel string
	videoModel string
	logger     *zap.Logger
}

var (
	_ ImageGenerator = (*GenAIMediaClient)(nil)
	_ VideoGenerator = (*GenAIMediaClient)(nil)
)

// NewGenAIMediaClient создает клиент Gemini API.
func NewGenAIMediaClient(ctx context.Context, apiKey, imageModel, videoModel string, logger *zap.Logger) (*GenAIMediaClient, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIMediaClient{
		client:     client,
		imageModel: imageModel,
		videoModel: videoModel,
		logger:     logger.Named("GenAIMediaClient"),
	}, nil
}

// GenerateImage возвращает первое изображение из ответа модели.
func (c *GenAIMediaClient) GenerateImage(ctx context.Context, req ImageRequest) (*MediaAsset, error) {
	log := c.logger.With(zap.String("model", c.imageModel))

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, genai.Text(req.Prompt), imageContentConfig(req))
	aiRequestDuration.WithLabelValues(backendGenAI, c.imageModel).Observe(time.Since(startTime).Seconds())
	if err != nil {
		log.Warn("Image generation failed", zap.Error(err))
		mediaGenerationsTotal.WithLabelValues("image", statusLabel(err)).Inc()
		return nil, classifyError(err)
	}

	asset := firstInlineImage(resp)
	if asset == nil {
		log.Warn("Image model returned no inline image data")
		mediaGenerationsTotal.WithLabelValues("image", statusEmptyResponse).Inc()
		return nil, fmt.Errorf("%w: no image in response", models.ErrUpstreamFailure)
	}
	asset.Model = c.imageModel

	mediaGenerationsTotal.WithLabelValues("image", statusSuccess).Inc()
	log.Debug("Image generated", zap.Int("bytes", len(asset.Data)), zap.String("mime", asset.MIMEType))
	return asset, nil
}

// imageContentConfig передает соотношение сторон модели, если оно задано.
func imageContentConfig(req ImageRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if req.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}
	return cfg
}

func firstInlineImage(resp *genai.GenerateContentResponse) *MediaAsset {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return &MediaAsset{Data: part.InlineData.Data, MIMEType: mime}
		}
	}
	return nil
}

// SubmitVideo запускает долгую операцию генерации видео и возвращает ее имя.
func (c *GenAIMediaClient) SubmitVideo(ctx context.Context, req VideoRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.videoModel
	}
	duration := int32(req.DurationSeconds)

	op, err := c.client.Models.GenerateVideos(ctx, model, req.Prompt, nil, &genai.GenerateVideosConfig{
		AspectRatio:     req.AspectRatio,
		DurationSeconds: &duration,
		Resolution:      defaultVideoRes,
		NumberOfVideos:  videoCountPerCall,
	})
	if err != nil {
		c.logger.Warn("Video submission failed", zap.String("model", model), zap.Error(err))
		mediaGenerationsTotal.WithLabelValues("video", statusLabel(err)).Inc()
		return "", classifyError(err)
	}
	if op == nil || op.Name == "" {
		mediaGenerationsTotal.WithLabelValues("video", statusEmptyResponse).Inc()
		return "", fmt.Errorf("%w: no operation name returned", models.ErrUpstreamFailure)
	}

	c.logger.Info("Video generation started", zap.String("model", model), zap.String("operation", op.Name))
	return op.Name, nil
}

// PollVideo запрашивает состояние операции. Видео, отданное по URI, скачивается.
func (c *GenAIMediaClient) PollVideo(ctx context.Context, operationName string) (*VideoStatus, error) {
	op, err := c.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: operationName}, nil)
	if err != nil {
		return nil, classifyError(err)
	}
	if !op.Done {
		return &VideoStatus{Done: false}, nil
	}
	if len(op.Error) > 0 {
		mediaGenerationsTotal.WithLabelValues("video", statusError).Inc()
		return &VideoStatus{Done: true, FailureReason: fmt.Sprint(op.Error["message"])}, nil
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 ||
		op.Response.GeneratedVideos[0] == nil || op.Response.GeneratedVideos[0].Video == nil {
		mediaGenerationsTotal.WithLabelValues("video", statusEmptyResponse).Inc()
		reason := "no video in response"
		if op.Response != nil && len(op.Response.RAIMediaFilteredReasons) > 0 {
			reason = fmt.Sprintf("filtered: %v", op.Response.RAIMediaFilteredReasons)
		}
		return &VideoStatus{Done: true, FailureReason: reason}, nil
	}

	video := op.Response.GeneratedVideos[0].Video
	data := video.VideoBytes
	if len(data) == 0 && video.URI != "" {
		data, err = c.client.Files.Download(ctx, genai.NewDownloadURIFromVideo(video), nil)
		if err != nil {
			return nil, classifyError(fmt.Errorf("download video: %w", err))
		}
	}
	if len(data) == 0 {
		return &VideoStatus{Done: true}, nil
	}

	mime := video.MIMEType
	if mime == "" {
		mime = defaultVideoMIME
	}
	mediaGenerationsTotal.WithLabelValues("video", statusSuccess).Inc()
	return &VideoStatus{
		Done:  true,
		Asset: &MediaAsset{Data: data, MIMEType: mime, Model: c.videoModel},
	}, nil
}
