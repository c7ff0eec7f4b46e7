package ai

import "context"

// TextRequest - запрос текстовой генерации.
// Каждое сообщение из Messages отправляется отдельным сообщением с ролью user.
type TextRequest struct {
	UserID       string
	SystemPrompt string
	Messages     []string
	// Используем указатели, чтобы отличить 0/0.0 от отсутствия.
	Temperature *float64
	MaxTokens   *int
}

// Usage содержит информацию об использовании токенов.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool // true, если шлюз не вернул usage и токены посчитаны локально
}

// TextResponse - ответ текстовой модели.
type TextResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// TextGenerator - текстовая модель (OpenAI-совместимый шлюз или Ollama).
// Ошибки: models.ErrRateLimited (429), models.ErrPaymentRequired (402),
// models.ErrUpstreamFailure (остальное). Повторных попыток не делает.
type TextGenerator interface {
	CompleteText(ctx context.Context, req TextRequest) (*TextResponse, error)
}

// ImageRequest - запрос генерации изображения.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
}

// MediaAsset - сгенерированный медиафайл.
type MediaAsset struct {
	Data     []byte
	MIMEType string
	Model    string
}

// ImageGenerator генерирует изображения.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*MediaAsset, error)
}

// VideoRequest - запрос на запуск генерации видео.
type VideoRequest struct {
	Prompt          string
	Model           string
	AspectRatio     string
	DurationSeconds int
}

// VideoStatus - состояние долгой операции генерации видео.
// Done без Asset и без FailureReason считается неуспехом.
type VideoStatus struct {
	Done          bool
	Asset         *MediaAsset
	FailureReason string
}

// VideoGenerator запускает генерацию видео и опрашивает ее статус.
type VideoGenerator interface {
	SubmitVideo(ctx context.Context, req VideoRequest) (string, error)
	PollVideo(ctx context.Context, operationName string) (*VideoStatus, error)
}

func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
