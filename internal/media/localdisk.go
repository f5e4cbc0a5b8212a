package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"echocore/pkg/interfaces"
)

// LocalStorage is the default ObjectStorage: it copies uploads into a
// served media directory and returns their public path. Deployments with a
// cloud bucket swap this for an SDK-backed implementation behind the same
// interface.
type LocalStorage struct {
	root    string
	baseURL string
}

var _ interfaces.ObjectStorage = (*LocalStorage)(nil)

// NewLocalStorage creates storage rooted at dir, served under baseURL.
func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{root: dir, baseURL: baseURL}
}

// Upload copies a local file into the media tree and returns its URL.
func (s *LocalStorage) Upload(ctx context.Context, localPath, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := filepath.Base(localPath)
	destDir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dest, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}

	if _, err := io.Copy(dest, src); err != nil {
		_ = dest.Close()
		return "", fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := dest.Close(); err != nil {
		return "", err
	}

	return path.Join(s.baseURL, folder, name), nil
}
