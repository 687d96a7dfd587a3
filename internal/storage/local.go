package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/spf13/afero"
)

type LocalStorage struct {
	fs      afero.Fs
	baseURL string
}

// NewLocalStorage baseURL префикс, по которому файлы раздаются клиентам
func NewLocalStorage(fsys afero.Fs, baseURL string) *LocalStorage {
	return &LocalStorage{fs: fsys, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStorage) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	name := "/" + key
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", key, err)
	}

	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

func (s *LocalStorage) Remove(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := s.fs.Remove("/" + key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *LocalStorage) HealthCheck(ctx context.Context) error {
	if _, err := s.fs.Stat("/"); err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}

// Handler раздает сохраненные файлы. Файлы лежат под корнем fs, как их открывает HttpFs.
func (s *LocalStorage) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(s.fs))
}
