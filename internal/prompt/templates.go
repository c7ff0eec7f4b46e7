package prompt

// Значения по умолчанию и служебные подстановки.
const (
	DefaultVisualStyle = "Cinematic, high quality"
	FirstBeatSentinel  = "None (this is the first beat)"
	FinalBeatSentinel  = "None (this is the final beat)"

	RegenFirstBeatSentinel = "None (first beat)"
	RegenFinalBeatSentinel = "None (final beat)"

	DefaultAudience         = "General"
	DefaultCoverTitle       = "Untitled Story"
	DefaultCoverDescription = "A compelling narrative adventure"
)

// Системные промпты.
const (
	StoryStructureSystem = "You are a master storyteller. Return ONLY valid JSON, no markdown."
	VisualPromptSystem   = "You are a professional cinematographer. Output plain text prompts only, no markdown or JSON."
	RegenerateBeatSystem = "You are a professional cinematographer. Output plain text prompts only."
)

// StoryStructure - промпт первого этапа. {storyLength} получает число битов.
const StoryStructure = `You are a master storyteller creating a scrollytelling experience.

Theme: {theme}
Audience: {targetAudience}
Framework: {framework}
Length: {storyLength} beats

Generate a compelling story with the following requirements:
1. Follow the {framework} narrative structure
2. Create exactly {storyLength} distinct beats
3. Each beat should have punchy, evocative narrative text (1-2 sentences max)
4. Recommend whether each beat should be IMAGE or VIDEO based on action/emotion
5. For video beats, suggest duration (4, 6, or 8 seconds only)

Return ONLY valid JSON in this exact format:
{
  "story_title": "Compelling title here",
  "story_description": "2-3 sentence story description",
  "beats": [
    {
      "beat_number": 1,
      "title": "Beat title",
      "narrative_text": "1-2 sentence narrative",
      "media_type": "IMAGE" or "VIDEO",
      "duration_seconds": 0,
      "visual_concept": "Brief 1-sentence visual concept"
    }
  ]
}`

// VisualPrompt - промпт для одного бита с контекстом соседних битов.
const VisualPrompt = `You are a professional cinematographer creating detailed prompts for AI image/video generation.

Story: {storyTitle} - {storyDescription}
Visual Style: {visualStyle}
Audience: {targetAudience}

Beat {beatNumber}/{totalBeats}: {beatTitle}
Narrative: {narrativeText}
Type: {mediaType}
Concept: {visualConcept}

Previous: {previousBeat}
Next: {nextBeat}

Generate a complete standalone prompt (200-400 words) including:
1. Full scene description with environment
2. Character details (appearance, clothing, expressions)
3. Camera work (angles, movement, framing)
4. Lighting and color palette
5. Art style specifications
6. For videos: motion description

Use 16:9 aspect ratio. Output plain text only.`

// RegenerateBeat - промпт перегенерации одного кадра.
// {additionalNotes} и {motionLine} заполняются целой строкой или пустой строкой.
const RegenerateBeat = `You are a professional cinematographer creating detailed prompts for AI image/video generation.

Story: {storyTitle} - {storyDescription}
Visual Style: {visualStyle}
Audience: {targetAudience}

Current Beat: {beatTitle}
Narrative: {narrativeText}
Type: {mediaType}

Previous Beat: {previousBeat}
Next Beat: {nextBeat}

{additionalNotes}

Generate a complete standalone prompt (200-400 words) including:
1. Full scene description with environment
2. Character details (appearance, clothing, expressions)
3. Camera work (angles, movement, framing)
4. Lighting and color palette
5. Art style specifications
{motionLine}

Use 16:9 aspect ratio. Output plain text only.`

const (
	AdditionalNotesLine = "Additional Notes: {notes}"
	VideoMotionLine     = "6. Motion and timing description"
)

// Обложка истории.
const (
	CoverSystem = `You are a creative director for movie posters. Generate a vivid, cinematic image prompt for an AI image generator. 
Focus on:
- Dramatic lighting and atmosphere
- Iconic visual metaphors
- Bold color palettes
- Emotional resonance
Keep the prompt under 200 words. Output ONLY the image prompt, no explanations.`

	CoverUser = `Create a cinematic movie poster prompt for this story:
Title: {title}
Description: {description}`

	CoverFallback = `Cinematic movie poster for "{title}", dramatic lighting, bold typography, atmospheric`

	CoverImage = "Create a vertical movie poster (2:3 aspect ratio) with this concept: {prompt}. \nStyle: Cinematic, dramatic, professional movie poster quality. No text or titles on the image."
)

// ImageEnhance дополняет пользовательский промпт изображения.
const ImageEnhance = "{aspectRatio} aspect ratio image: {prompt}. Ultra high resolution, cinematic quality."

// Помощник автора.
const (
	AssistSystem = `You are an expert storytelling assistant helping a writer craft their narrative. 
Your role is to provide suggestions that:
- Align with the current story beat and framework
- Maintain consistency with previous story elements
- Enhance emotional impact and narrative flow
- Respect the writer's creative vision

Provide concise, actionable suggestions that the writer can build upon.`

	AssistStorySoFarHeader = "Story so far:\n"
	AssistFrameLine        = "Frame {n}: {content}"
	AssistBeatGuidance     = "\n\nCurrent story beat: {beatName}\nGuidance: {guidance}"
	AssistWriterPrompt     = "Writer's prompt: {prompt}\n\nProvide creative suggestions for developing this scene."
)

// FallbackVisualPrompt - запасной визуальный промпт для бита.
const FallbackVisualPrompt = "Scene {n}: {visualConcept}"
