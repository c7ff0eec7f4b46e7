package ai

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

var (
	encodingMu    sync.Mutex
	encodingCache = make(map[string]*tiktoken.Tiktoken)
)

// estimateTokens считает токены локально. Для моделей, неизвестных tiktoken
// (например google/gemini-*), используется cl100k_base. При ошибке возвращает 0.
func estimateTokens(model string, texts ...string) int {
	tke := encodingFor(model)
	if tke == nil {
		return 0
	}
	total := 0
	for _, t := range texts {
		if t == "" {
			continue
		}
		total += len(tke.Encode(t, nil, nil))
	}
	return total
}

func encodingFor(model string) *tiktoken.Tiktoken {
	encodingMu.Lock()
	defer encodingMu.Unlock()

	if tke, ok := encodingCache[model]; ok {
		return tke
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil
		}
	}
	encodingCache[model] = tke
	return tke
}

// estimateUsage заполняет Usage оценкой по тексту запроса и ответа.
func estimateUsage(model string, req TextRequest, content string) Usage {
	prompt := estimateTokens(model, req.SystemPrompt, strings.Join(req.Messages, "\n"))
	completion := estimateTokens(model, content)
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Estimated:        true,
	}
}
