package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey возвращается для ключей, выходящих за пределы хранилища.
var ErrInvalidKey = errors.New("invalid storage key")

// Storage сохраняет сгенерированные медиафайлы и возвращает их публичный URL.
type Storage interface {
	Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
}
