// Package storage хранит файлы вложений локально или в S3-совместимом хранилище.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("invalid storage key")

type FileStorage interface {
	// Save записывает файл и возвращает публичную ссылку на него
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Remove не возвращает ошибку, если файла уже нет
	Remove(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != key || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
