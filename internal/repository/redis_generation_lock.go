package repository

import (
	"context"
	"fmt"
	"time"

	"storyframe-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ GenerationLock = (*redisGenerationLock)(nil)

const generationLockKeyPrefix = "storyframe:generation_lock:"

// Удаляем ключ, только если он все еще принадлежит нам.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

type redisGenerationLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGenerationLock создает блокировку активной генерации на Redis.
// TTL ограничивает время жизни блокировки, если процесс упал до Release.
func NewRedisGenerationLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) GenerationLock {
	return &redisGenerationLock{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisGenerationLock"),
	}
}

func generationLockKey(userID uuid.UUID) string {
	return generationLockKeyPrefix + userID.String()
}

func (l *redisGenerationLock) Acquire(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, generationLockKey(userID), token, l.ttl).Result()
	if err != nil {
		l.logger.Error("Failed to acquire generation lock", zap.String("userID", userID.String()), zap.Error(err))
		return "", fmt.Errorf("ошибка установки блокировки генерации: %w", err)
	}
	if !ok {
		l.logger.Info("User already has an active generation", zap.String("userID", userID.String()))
		return "", models.ErrUserHasActiveGeneration
	}
	return token, nil
}

func (l *redisGenerationLock) Release(ctx context.Context, userID uuid.UUID, token string) error {
	if err := releaseLockScript.Run(ctx, l.client, []string{generationLockKey(userID)}, token).Err(); err != nil {
		l.logger.Warn("Failed to release generation lock", zap.String("userID", userID.String()), zap.Error(err))
		return fmt.Errorf("ошибка снятия блокировки генерации: %w", err)
	}
	return nil
}
