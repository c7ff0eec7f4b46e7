package mocks

import (
	"context"

	"storyframe-server/internal/ai"

	"github.com/stretchr/testify/mock"
)

// TextGenerator is a mock type for the ai.TextGenerator type
type TextGenerator struct {
	mock.Mock
}

// CompleteText provides a mock function with given fields: ctx, req
func (_m *TextGenerator) CompleteText(ctx context.Context, req ai.TextRequest) (*ai.TextResponse, error) {
	ret := _m.Called(ctx, req)

	var r0 *ai.TextResponse
	if rf, ok := ret.Get(0).(func(context.Context, ai.TextRequest) *ai.TextResponse); ok {
		r0 = rf(ctx, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ai.TextResponse)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, ai.TextRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}
	return r0, r1
}

// NewTextGenerator creates a new instance of TextGenerator and registers expectation assertions on cleanup.
func NewTextGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *TextGenerator {
	m := &TextGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ ai.TextGenerator = (*TextGenerator)(nil)

// ImageGenerator is a mock type for the ai.ImageGenerator type
type ImageGenerator struct {
	mock.Mock
}

// GenerateImage provides a mock function with given fields: ctx, req
func (_m *ImageGenerator) GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.MediaAsset, error) {
	ret := _m.Called(ctx, req)
	asset, _ := ret.Get(0).(*ai.MediaAsset)
	return asset, ret.Error(1)
}

func NewImageGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *ImageGenerator {
	m := &ImageGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ ai.ImageGenerator = (*ImageGenerator)(nil)

// VideoGenerator is a mock type for the ai.VideoGenerator type
type VideoGenerator struct {
	mock.Mock
}

// SubmitVideo provides a mock function with given fields: ctx, req
func (_m *VideoGenerator) SubmitVideo(ctx context.Context, req ai.VideoRequest) (string, error) {
	ret := _m.Called(ctx, req)
	return ret.String(0), ret.Error(1)
}

// PollVideo provides a mock function with given fields: ctx, operationName
func (_m *VideoGenerator) PollVideo(ctx context.Context, operationName string) (*ai.VideoStatus, error) {
	ret := _m.Called(ctx, operationName)
	status, _ := ret.Get(0).(*ai.VideoStatus)
	return status, ret.Error(1)
}

func NewVideoGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *VideoGenerator {
	m := &VideoGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ ai.VideoGenerator = (*VideoGenerator)(nil)
