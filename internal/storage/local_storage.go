package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var _ Storage = (*LocalStorage)(nil)

// LocalStorage хранит файлы на диске; cmd/server раздает basePath по publicBaseURL.
type LocalStorage struct {
	basePath      string
	publicBaseURL string
	logger        *zap.Logger
}

func NewLocalStorage(basePath, publicBaseURL string, logger *zap.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.Named("LocalStorage"),
	}, nil
}

// Save пишет файл во временный файл и переименовывает его, чтобы читатели не видели частичную запись.
func (ls *LocalStorage) Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	cleanKey, err := cleanStorageKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(ls.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", cleanKey, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	ls.logger.Debug("File stored",
		zap.String("key", cleanKey),
		zap.String("contentType", contentType),
		zap.Int64("bytes", written),
	)
	return ls.PublicURL(cleanKey), nil
}

// PublicURL возвращает адрес, по которому файл доступен клиентам.
func (ls *LocalStorage) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return ls.publicBaseURL + "/" + strings.Join(segments, "/")
}

func cleanStorageKey(key string) (string, error) {
	if key == "" || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
