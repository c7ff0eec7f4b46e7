package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "replaces every occurrence",
			template: "Follow {framework}. Again: {framework}.",
			vars:     map[string]string{"framework": "Save the Cat"},
			want:     "Follow Save the Cat. Again: Save the Cat.",
		},
		{
			name:     "unknown placeholder stays verbatim",
			template: "Theme: {theme}, mood: {mood}",
			vars:     map[string]string{"theme": "garden"},
			want:     "Theme: garden, mood: {mood}",
		},
		{
			name:     "case sensitive",
			template: "{Theme} {theme}",
			vars:     map[string]string{"theme": "x"},
			want:     "{Theme} x",
		},
		{
			name:     "values are not rescanned",
			template: "{a}",
			vars:     map[string]string{"a": "{b}", "b": "nope"},
			want:     "{b}",
		},
		{
			name:     "json braces survive",
			template: "{\n  \"title\": \"{title}\"\n}",
			vars:     map[string]string{"title": "Robot"},
			want:     "{\n  \"title\": \"Robot\"\n}",
		},
		{
			name:     "unterminated brace",
			template: "end {theme",
			vars:     map[string]string{"theme": "x"},
			want:     "end {theme",
		},
		{
			name:     "empty vars",
			template: "{theme}",
			vars:     nil,
			want:     "{theme}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.vars))
		})
	}
}

func TestRenderIdempotent(t *testing.T) {
	vars := map[string]string{
		"theme":          "a robot finds a garden",
		"targetAudience": "Kids",
		"framework":      "Three-Act Structure",
		"storyLength":    "6",
	}
	once := Render(StoryStructure, vars)
	assert.Equal(t, once, Render(once, vars))
	assert.Contains(t, once, "Create exactly 6 distinct beats")
	assert.NotContains(t, once, "{framework}")
}

func TestPlaceholderNames(t *testing.T) {
	assert.Equal(t,
		[]string{"theme", "targetAudience", "framework", "storyLength"},
		placeholders(StoryStructure))
	assert.Equal(t, []string{"n", "visualConcept"}, placeholders(FallbackVisualPrompt))
}

func TestVisualPromptTemplateIsFullyRendered(t *testing.T) {
	vars := make(map[string]string)
	for _, name := range placeholders(VisualPrompt) {
		vars[name] = "v"
	}
	assert.Empty(t, placeholders(Render(VisualPrompt, vars)))
}

// placeholders возвращает имена плейсхолдеров шаблона в порядке появления, без повторов.
func placeholders(template string) []string {
	seen := make(map[string]struct{})
	var names []string
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			continue
		}
		rest := template[i+1:]
		closeIdx := strings.IndexByte(rest, '}')
		if closeIdx <= 0 {
			continue
		}
		name := rest[:closeIdx]
		if strings.ContainsAny(name, "{ \n\t\"") {
			continue
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		i += closeIdx + 1
	}
	return names
}
