package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretReader читает секреты из каталога Docker Secrets.
type SecretReader struct {
	dir string
}

func NewSecretReader(dir string) SecretReader {
	if dir == "" {
		dir = "/run/secrets"
	}
	return SecretReader{dir: dir}
}

// Read возвращает содержимое файла секрета без пробелов по краям.
// Переменные окружения намеренно не используются как запасной вариант.
func (r SecretReader) Read(secretName string) (string, error) {
	filePath := filepath.Join(r.dir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
