package mocks

import (
	"context"

	"storyframe-server/internal/models"
	"storyframe-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// StoryGenerator mock
type StoryGenerator struct {
	mock.Mock
}

func (m *StoryGenerator) GenerateStory(ctx context.Context, userID uuid.UUID, brief models.StoryBrief) (*models.GenerationResult, error) {
	args := m.Called(ctx, userID, brief)
	res, _ := args.Get(0).(*models.GenerationResult)
	return res, args.Error(1)
}

// BeatRegenerator mock
type BeatRegenerator struct {
	mock.Mock
}

func (m *BeatRegenerator) RegenerateBeat(ctx context.Context, userID, frameID uuid.UUID, mods models.BeatModifications) (string, error) {
	args := m.Called(ctx, userID, frameID, mods)
	return args.String(0), args.Error(1)
}

// MediaService mock
type MediaService struct {
	mock.Mock
}

func (m *MediaService) GenerateImage(ctx context.Context, userID uuid.UUID, promptText, aspectRatio string) (*models.ImageResult, error) {
	args := m.Called(ctx, userID, promptText, aspectRatio)
	res, _ := args.Get(0).(*models.ImageResult)
	return res, args.Error(1)
}

func (m *MediaService) GenerateVideo(ctx context.Context, userID uuid.UUID, params models.VideoParams) (*models.VideoResult, error) {
	args := m.Called(ctx, userID, params)
	res, _ := args.Get(0).(*models.VideoResult)
	return res, args.Error(1)
}

// CoverService mock
type CoverService struct {
	mock.Mock
}

func (m *CoverService) GenerateCover(ctx context.Context, userID uuid.UUID, params models.CoverParams) (*models.CoverResult, error) {
	args := m.Called(ctx, userID, params)
	res, _ := args.Get(0).(*models.CoverResult)
	return res, args.Error(1)
}

// AssistService mock
type AssistService struct {
	mock.Mock
}

func (m *AssistService) Suggest(ctx context.Context, userID uuid.UUID, req models.AssistRequest) (string, error) {
	args := m.Called(ctx, userID, req)
	return args.String(0), args.Error(1)
}

// StoryEditor mock
type StoryEditor struct {
	mock.Mock
}

func (m *StoryEditor) ReorderFrames(ctx context.Context, userID, chapterID uuid.UUID, orderedFrameIDs []uuid.UUID) ([]models.Frame, error) {
	args := m.Called(ctx, userID, chapterID, orderedFrameIDs)
	frames, _ := args.Get(0).([]models.Frame)
	return frames, args.Error(1)
}

func (m *StoryEditor) InsertFrame(ctx context.Context, userID, chapterID uuid.UUID, afterIndex int, narrativeContent string) (*models.Frame, error) {
	args := m.Called(ctx, userID, chapterID, afterIndex, narrativeContent)
	f, _ := args.Get(0).(*models.Frame)
	return f, args.Error(1)
}

func (m *StoryEditor) UpdateFrameContent(ctx context.Context, userID, frameID uuid.UUID, narrativeContent string) error {
	return m.Called(ctx, userID, frameID, narrativeContent).Error(0)
}

func (m *StoryEditor) UpdateStatus(ctx context.Context, userID, narrativeID uuid.UUID, status models.NarrativeStatus) (*models.Narrative, error) {
	args := m.Called(ctx, userID, narrativeID, status)
	n, _ := args.Get(0).(*models.Narrative)
	return n, args.Error(1)
}

func (m *StoryEditor) UpdateVisibility(ctx context.Context, userID, narrativeID uuid.UUID, isPublic bool) (*models.Narrative, error) {
	args := m.Called(ctx, userID, narrativeID, isPublic)
	n, _ := args.Get(0).(*models.Narrative)
	return n, args.Error(1)
}

var (
	_ service.StoryGenerator  = (*StoryGenerator)(nil)
	_ service.BeatRegenerator = (*BeatRegenerator)(nil)
	_ service.MediaService    = (*MediaService)(nil)
	_ service.CoverService    = (*CoverService)(nil)
	_ service.AssistService   = (*AssistService)(nil)
	_ service.StoryEditor     = (*StoryEditor)(nil)
)
