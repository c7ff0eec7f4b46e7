package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestImageContentConfig(t *testing.T) {
	t.Run("aspect ratio is passed to image config", func(t *testing.T) {
		cfg := imageContentConfig(ImageRequest{Prompt: "a lighthouse", AspectRatio: "2:3"})

		assert.Equal(t, []string{"IMAGE", "TEXT"}, cfg.ResponseModalities)
		require.NotNil(t, cfg.ImageConfig)
		assert.Equal(t, "2:3", cfg.ImageConfig.AspectRatio)
	})

	t.Run("no aspect ratio leaves model default", func(t *testing.T) {
		cfg := imageContentConfig(ImageRequest{Prompt: "a lighthouse"})

		assert.Nil(t, cfg.ImageConfig)
	})
}

func TestFirstInlineImage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here is your image"},
				{InlineData: &genai.Blob{Data: []byte{0x89, 0x50}}},
			}}},
		},
	}

	asset := firstInlineImage(resp)

	require.NotNil(t, asset)
	assert.Equal(t, []byte{0x89, 0x50}, asset.Data)
	assert.Equal(t, "image/png", asset.MIMEType)
	assert.Nil(t, firstInlineImage(nil))
	assert.Nil(t, firstInlineImage(&genai.GenerateContentResponse{}))
}
