// Package storage transfers artifacts to object storage and computes their public URLs.
package storage

//go:generate mockgen -destination=mocks/mock_transferer.go -package=mocks -source=storage.go Transferer

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ralt/wheelhouse/internal/models"
)

// Transferer uploads a local file to a storage backend
type Transferer interface {
	// Transfer uploads localPath under key. Exactly one attempt is made.
	Transfer(ctx context.Context, localPath, key string) error

	// URL returns the public retrieval URL for key
	URL(key string) string
}

// Key joins a prefix and a file name into an object key without a leading slash
func Key(prefix, filename string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return filename
	}
	return path.Join(prefix, filename)
}

// New builds the transferer selected by cfg.Backend
func New(ctx context.Context, cfg *models.Config) (Transferer, error) {
	switch cfg.Backend {
	case models.BackendS3, "":
		return NewS3Transferer(ctx, cfg.Bucket, cfg.Region, cfg.Endpoint, cfg.BaseURL)
	case models.BackendGCS:
		return NewGCSTransferer(ctx, cfg.Bucket, cfg.BaseURL)
	case models.BackendFile:
		return NewFileTransferer(cfg.Root, cfg.BaseURL)
	default:
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("unknown storage backend %q", cfg.Backend))
	}
}

// joinURL appends an escaped object key to a base URL
func joinURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// contentType picks the Content-Type stored with an object
func contentType(key string) string {
	switch path.Ext(key) {
	case ".asc":
		return "application/pgp-signature"
	case ".metadata":
		return "text/plain; charset=utf-8"
	case ".whl":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

func transferError(key string, err error) error {
	return models.NewError(models.ErrTransferFailure, key, err)
}
