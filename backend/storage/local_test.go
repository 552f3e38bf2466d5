package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"ieltsprep/backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := "files/2025/sample.pdf"
	require.NoError(t, s.Upload(ctx, key, strings.NewReader("%PDF-1.4 body"), "application/pdf"))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting twice is not an error")

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Download(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = s.Upload(context.Background(), "../escape.pdf", strings.NewReader("x"), "application/pdf")
	assert.Error(t, err)

	_, err = s.Download(context.Background(), "")
	assert.Error(t, err)
}

func TestLocalStorageCancelledUpload(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Upload(ctx, "a.pdf", strings.NewReader("data"), "application/pdf")
	assert.ErrorIs(t, err, context.Canceled)

	ok, err := s.Exists(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	s, err := New(&config.Config{StorageBackend: "local", UploadDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	s, err = New(&config.Config{StorageBackend: "s3", S3Region: "eu-west-1", S3Bucket: "b", S3Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, s)
}
