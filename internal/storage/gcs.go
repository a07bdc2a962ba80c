package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/sirupsen/logrus"
)

// objectWriterFunc opens a writer for one object. The object is committed by
// Close; canceling ctx abandons it.
type objectWriterFunc func(ctx context.Context, bucket, key string) io.WriteCloser

// GCSTransferer uploads artifacts to a Google Cloud Storage bucket
type GCSTransferer struct {
	newWriter objectWriterFunc
	bucket    string
	baseURL   string
}

// NewGCSTransferer creates a GCS transferer using application default credentials
func NewGCSTransferer(ctx context.Context, bucket, baseURL string) (*GCSTransferer, error) {
	if bucket == "" {
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("storage bucket is required for the gcs backend"))
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("failed to create GCS client: %w", err))
	}

	return newGCSTransferer(clientWriter(client), bucket, baseURL), nil
}

func newGCSTransferer(newWriter objectWriterFunc, bucket, baseURL string) *GCSTransferer {
	return &GCSTransferer{
		newWriter: newWriter,
		bucket:    bucket,
		baseURL:   baseURL,
	}
}

func clientWriter(client *gcs.Client) objectWriterFunc {
	return func(ctx context.Context, bucket, key string) io.WriteCloser {
		w := client.Bucket(bucket).Object(key).NewWriter(ctx)
		w.ContentType = contentType(key)
		return w
	}
}

// Transfer streams the file into a new object version
func (t *GCSTransferer) Transfer(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return transferError(key, err)
	}
	defer f.Close()

	logrus.Debugf("PUT gs://%s/%s", t.bucket, key)

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := t.newWriter(wctx, t.bucket, key)
	if _, err := io.Copy(w, f); err != nil {
		// Close would commit the partial object over the existing one
		cancel()
		return transferError(key, fmt.Errorf("gcs upload to %s failed: %w", t.bucket, err))
	}

	if err := w.Close(); err != nil {
		return transferError(key, fmt.Errorf("gcs upload to %s failed: %w", t.bucket, err))
	}

	return nil
}

// URL returns the public object URL
func (t *GCSTransferer) URL(key string) string {
	if t.baseURL != "" {
		return joinURL(t.baseURL, key)
	}
	return joinURL("https://storage.googleapis.com/"+t.bucket, key)
}
