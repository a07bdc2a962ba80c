package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ralt/wheelhouse/internal/models"
	"github.com/ralt/wheelhouse/internal/utils"
	"github.com/sirupsen/logrus"
)

// FileTransferer copies artifacts into a local directory served by a static host
type FileTransferer struct {
	root    string
	baseURL string
}

// NewFileTransferer creates a transferer that copies into root
func NewFileTransferer(root, baseURL string) (*FileTransferer, error) {
	if root == "" {
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("storage root is required for the file backend"))
	}
	if baseURL == "" {
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("storage base URL is required for the file backend"))
	}
	return &FileTransferer{root: root, baseURL: baseURL}, nil
}

// Transfer copies the file to <root>/<key>
func (t *FileTransferer) Transfer(ctx context.Context, localPath, key string) error {
	if err := ctx.Err(); err != nil {
		return transferError(key, err)
	}

	dst := filepath.Join(t.root, filepath.FromSlash(key))
	if utils.SameFile(localPath, dst) {
		logrus.Debugf("%s is already in place", dst)
		return nil
	}
	logrus.Debugf("Copying %s to %s", localPath, dst)

	if err := utils.CopyFile(localPath, dst); err != nil {
		return transferError(key, err)
	}
	return nil
}

// URL returns <baseURL>/<key>
func (t *FileTransferer) URL(key string) string {
	return joinURL(t.baseURL, key)
}
