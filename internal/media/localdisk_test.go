package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_Upload(t *testing.T) {
	srcDir := t.TempDir()
	mediaDir := t.TempDir()

	srcPath := filepath.Join(srcDir, "track.mp3")
	require.NoError(t, os.WriteFile(srcPath, []byte("audio bytes"), 0o644))

	storage := NewLocalStorage(mediaDir, "/media")

	url, err := storage.Upload(context.Background(), srcPath, "audio")
	require.NoError(t, err)
	assert.Equal(t, "/media/audio/track.mp3", url)

	copied, err := os.ReadFile(filepath.Join(mediaDir, "audio", "track.mp3"))
	require.NoError(t, err)
	assert.Equal(t, []byte("audio bytes"), copied)
}

func TestLocalStorage_UploadMissingSource(t *testing.T) {
	storage := NewLocalStorage(t.TempDir(), "/media")

	_, err := storage.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"), "audio")
	assert.Error(t, err)
}

func TestLocalStorage_UploadCancelledContext(t *testing.T) {
	storage := NewLocalStorage(t.TempDir(), "/media")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.Upload(ctx, "whatever.mp3", "audio")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStorage_UploadOverwritesExisting(t *testing.T) {
	srcDir := t.TempDir()
	mediaDir := t.TempDir()
	storage := NewLocalStorage(mediaDir, "/media")

	srcPath := filepath.Join(srcDir, "cover.jpg")
	require.NoError(t, os.WriteFile(srcPath, []byte("v1"), 0o644))
	_, err := storage.Upload(context.Background(), srcPath, "avatars")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(srcPath, []byte("v2"), 0o644))
	url, err := storage.Upload(context.Background(), srcPath, "avatars")
	require.NoError(t, err)
	assert.Equal(t, "/media/avatars/cover.jpg", url)

	copied, err := os.ReadFile(filepath.Join(mediaDir, "avatars", "cover.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), copied)
}
