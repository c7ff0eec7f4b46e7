package mocks

import (
	"context"
	"io"

	"storyframe-server/internal/auth"
	"storyframe-server/internal/database"
	"storyframe-server/internal/messaging"
	"storyframe-server/internal/models"
	"storyframe-server/internal/storage"

	"github.com/stretchr/testify/mock"
)

// Transactor mock. При успешном ожидании вызывает fn с nil транзакцией,
// поэтому репозитории внутри fn тоже должны быть моками.
type Transactor struct {
	mock.Mock
}

func (m *Transactor) ExecuteInTransaction(ctx context.Context, fn database.TxFunc) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return fn(nil)
}

// Storage mock. Содержимое читается сразу, чтобы тесты могли его проверить.
type Storage struct {
	mock.Mock
}

func (m *Storage) Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

// EventPublisher mock
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishStoryEvent(ctx context.Context, event messaging.StoryEvent) error {
	return m.Called(ctx, event).Error(0)
}

// TokenVerifier mock
type TokenVerifier struct {
	mock.Mock
}

func (m *TokenVerifier) VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	args := m.Called(ctx, tokenString)
	claims, _ := args.Get(0).(*models.Claims)
	return claims, args.Error(1)
}

var (
	_ database.Transactor      = (*Transactor)(nil)
	_ storage.Storage          = (*Storage)(nil)
	_ messaging.EventPublisher = (*EventPublisher)(nil)
	_ auth.TokenVerifier       = (*TokenVerifier)(nil)
)
