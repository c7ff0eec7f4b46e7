package service

var (
	BeatCountForLength = beatCountForLength
	StripCodeFence     = stripCodeFence
	AssistMessages     = assistMessages
)
