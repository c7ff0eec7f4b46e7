package prompt

import "strings"

// Framework - нарративный фреймворк и его биты по порядку.
type Framework struct {
	Name  string   `json:"name"`
	Beats []string `json:"beats"`
}

// AudienceHint - стилистическая подсказка для целевой аудитории.
type AudienceHint struct {
	Audience string `json:"audience"`
	Hint     string `json:"hint"`
}

var frameworks = []Framework{
	{Name: "Hero's Journey", Beats: []string{
		"Ordinary World - Establish the hero in their normal life",
		"Call to Adventure - Something disrupts the status quo",
		"Refusal of the Call - Hero hesitates or fears change",
		"Meeting the Mentor - A guide appears with wisdom",
		"Crossing the Threshold - Hero commits to the journey",
		"Tests, Allies, Enemies - Challenges and new relationships",
		"Approach to the Inmost Cave - Preparation for major challenge",
		"Ordeal - The hero faces their greatest fear",
		"Reward - Victory and gaining something valuable",
		"The Road Back - Beginning the return journey",
		"Resurrection - Final test and transformation",
		"Return with the Elixir - Hero returns changed",
	}},
	{Name: "Three-Act Structure", Beats: []string{
		"Setup - Introduce world and characters",
		"Inciting Incident - Event that starts the story",
		"Rising Action - Complications increase",
		"Midpoint - Major revelation or shift",
		"Escalation - Stakes get higher",
		"Crisis - Everything falls apart",
		"Climax - Final confrontation",
		"Resolution - New equilibrium",
	}},
	{Name: "Five-Act Structure", Beats: []string{
		"Exposition - World and character introduction",
		"Rising Action - Conflict develops",
		"Climax - Peak of tension",
		"Falling Action - Consequences unfold",
		"Resolution - Story concludes",
	}},
	{Name: "Save the Cat", Beats: []string{
		"Opening Image - Visual that sets the tone",
		"Theme Stated - Hint at the story's message",
		"Setup - Establish the world",
		"Catalyst - The event that changes everything",
		"Debate - Hero questions what to do",
		"Break into Two - Decision to act",
		"B Story - Subplot begins",
		"Fun and Games - The promise of the premise",
		"Midpoint - False victory or defeat",
		"Bad Guys Close In - Opposition strengthens",
		"All Is Lost - Lowest point",
		"Dark Night of the Soul - Despair before breakthrough",
		"Break into Three - Solution discovered",
		"Finale - Final battle/confrontation",
		"Final Image - Mirror of opening, showing change",
	}},
	{Name: "Freeform", Beats: []string{
		"Opening - Set the scene",
		"Development - Build the narrative",
		"Climax - Peak moment",
		"Conclusion - Wrap up the story",
	}},
}

var audienceHints = []AudienceHint{
	{Audience: "Kids", Hint: "bright colors, friendly characters, simple compositions, wonder and magic, safe and warm atmosphere"},
	{Audience: "Teens", Hint: "dynamic angles, bold contrasts, relatable emotions, contemporary style, energetic mood"},
	{Audience: "Adults", Hint: "sophisticated compositions, nuanced lighting, complex emotions, cinematic quality"},
	{Audience: "Therapeutic", Hint: "calming colors, soft lighting, safe spaces, gentle transitions, peaceful atmosphere"},
	{Audience: "Corporate", Hint: "professional aesthetic, clean lines, confident postures, modern environments, aspirational tone"},
}

// Frameworks возвращает копию каталога фреймворков.
func Frameworks() []Framework {
	out := make([]Framework, len(frameworks))
	for i, f := range frameworks {
		out[i] = Framework{Name: f.Name, Beats: append([]string(nil), f.Beats...)}
	}
	return out
}

// AudienceHints возвращает копию подсказок по аудиториям.
func AudienceHints() []AudienceHint {
	return append([]AudienceHint(nil), audienceHints...)
}

// FindFramework ищет фреймворк по имени без учета регистра.
func FindFramework(name string) (Framework, bool) {
	for _, f := range frameworks {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return Framework{Name: f.Name, Beats: append([]string(nil), f.Beats...)}, true
		}
	}
	return Framework{}, false
}

// AudienceHintFor возвращает подсказку для аудитории или пустую строку.
func AudienceHintFor(audience string) string {
	for _, h := range audienceHints {
		if strings.EqualFold(h.Audience, strings.TrimSpace(audience)) {
			return h.Hint
		}
	}
	return ""
}
