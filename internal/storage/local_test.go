package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewLocalStorage(fs, "http://localhost:8080/uploads/")
	ctx := context.Background()

	url, err := s.Save(ctx, "attachments/a/b.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/attachments/a/b.png", url)

	data, err := afero.ReadFile(fs, "/attachments/a/b.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	require.NoError(t, s.Remove(ctx, "attachments/a/b.png"))
	exists, err := afero.Exists(fs, "/attachments/a/b.png")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, s.Remove(ctx, "attachments/a/b.png"), "removing a missing file is not an error")
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s := NewLocalStorage(afero.NewMemMapFs(), "/uploads")

	for _, key := range []string{"../etc/passwd", "/abs.png", "a/../../b.png", ""} {
		_, err := s.Save(context.Background(), key, []byte("x"), "image/png")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStorageHandlerServesFiles(t *testing.T) {
	s := NewLocalStorage(afero.NewMemMapFs(), "/uploads")
	_, err := s.Save(context.Background(), "attachments/x.png", []byte("image-bytes"), "image/png")
	require.NoError(t, err)

	srv := httptest.NewServer(http.StripPrefix("/uploads", s.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/uploads/attachments/x.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
