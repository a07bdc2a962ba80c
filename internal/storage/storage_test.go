package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		want   string
	}{
		{"", "a.whl"},
		{"/", "a.whl"},
		{"wheels", "wheels/a.whl"},
		{"wheels/", "wheels/a.whl"},
		{"/wheels/aarch64/", "wheels/aarch64/a.whl"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Key(tt.prefix, "a.whl"), "prefix %q", tt.prefix)
	}
}

func TestS3URL(t *testing.T) {
	t.Parallel()

	const key = "wheels/numpy-1.24.0+cu121-cp311-cp311-linux_aarch64.whl"

	tests := []struct {
		name string
		tr   *S3Transferer
		want string
	}{
		{
			name: "global endpoint",
			tr:   &S3Transferer{bucket: "bucket"},
			want: "https://bucket.s3.amazonaws.com/wheels/numpy-1.24.0+cu121-cp311-cp311-linux_aarch64.whl",
		},
		{
			name: "regional endpoint",
			tr:   &S3Transferer{bucket: "bucket", region: "eu-west-1"},
			want: "https://bucket.s3.eu-west-1.amazonaws.com/wheels/numpy-1.24.0+cu121-cp311-cp311-linux_aarch64.whl",
		},
		{
			name: "custom endpoint",
			tr:   &S3Transferer{bucket: "bucket", region: "us-east-1", endpoint: "http://minio:9000/"},
			want: "http://minio:9000/bucket/wheels/numpy-1.24.0+cu121-cp311-cp311-linux_aarch64.whl",
		},
		{
			name: "base url wins",
			tr:   &S3Transferer{bucket: "bucket", endpoint: "http://minio:9000", baseURL: "https://cdn.example.com/py/"},
			want: "https://cdn.example.com/py/wheels/numpy-1.24.0+cu121-cp311-cp311-linux_aarch64.whl",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.tr.URL(key))
		})
	}
}

func TestGCSURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://storage.googleapis.com/bucket/a.whl", (&GCSTransferer{bucket: "bucket"}).URL("a.whl"))
	assert.Equal(t, "https://cdn.example.com/a.whl", (&GCSTransferer{bucket: "bucket", baseURL: "https://cdn.example.com"}).URL("a.whl"))
}

func TestURLEscapesKey(t *testing.T) {
	t.Parallel()

	tr := &FileTransferer{root: "/srv", baseURL: "https://h"}
	assert.Equal(t, "https://h/odd%20dir/a%3Fb.whl", tr.URL("odd dir/a?b.whl"))
}

type fakePutObject struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Transfer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a-1.0-py3-none-any.whl")
	require.NoError(t, os.WriteFile(path, []byte("wheel"), 0644))

	client := &fakePutObject{}
	tr := newS3Transferer(client, "bucket", "eu-west-1", "", "")

	require.NoError(t, tr.Transfer(context.Background(), path, "wheels/a-1.0-py3-none-any.whl"))
	assert.Equal(t, "bucket", aws.ToString(client.input.Bucket))
	assert.Equal(t, "wheels/a-1.0-py3-none-any.whl", aws.ToString(client.input.Key))
	assert.Equal(t, int64(5), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, "application/zip", aws.ToString(client.input.ContentType))
	assert.Equal(t, "wheel", string(client.body))
}

func TestS3TransferFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.whl.asc")
	require.NoError(t, os.WriteFile(path, []byte("sig"), 0644))

	client := &fakePutObject{err: errors.New("AccessDenied")}
	tr := newS3Transferer(client, "bucket", "", "", "")

	err := tr.Transfer(context.Background(), path, "a.whl.asc")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrTransferFailure))
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.Equal(t, "application/pgp-signature", aws.ToString(client.input.ContentType))

	err = tr.Transfer(context.Background(), filepath.Join(t.TempDir(), "missing.whl"), "missing.whl")
	assert.True(t, models.IsErrorType(err, models.ErrTransferFailure))
}

type fakeObjectWriter struct {
	ctx      context.Context
	bucket   string
	key      string
	buf      bytes.Buffer
	closed   bool
	closeErr error
}

func (f *fakeObjectWriter) open(ctx context.Context, bucket, key string) io.WriteCloser {
	f.ctx, f.bucket, f.key = ctx, bucket, key
	return f
}

func (f *fakeObjectWriter) Write(p []byte) (int, error) {
	if err := f.ctx.Err(); err != nil {
		return 0, err
	}
	return f.buf.Write(p)
}

func (f *fakeObjectWriter) Close() error {
	f.closed = true
	return f.closeErr
}

func TestGCSTransfer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a-1.0-py3-none-any.whl")
	require.NoError(t, os.WriteFile(path, []byte("wheel"), 0644))

	w := &fakeObjectWriter{}
	tr := newGCSTransferer(w.open, "bucket", "")

	require.NoError(t, tr.Transfer(context.Background(), path, "wheels/a-1.0-py3-none-any.whl"))
	assert.Equal(t, "bucket", w.bucket)
	assert.Equal(t, "wheels/a-1.0-py3-none-any.whl", w.key)
	assert.Equal(t, "wheel", w.buf.String())
	assert.True(t, w.closed, "a complete upload must be committed")
}

func TestGCSTransferReadFailureAbandonsObject(t *testing.T) {
	t.Parallel()

	// Opening a directory succeeds but reading it fails mid-copy
	dir := t.TempDir()

	w := &fakeObjectWriter{}
	tr := newGCSTransferer(w.open, "bucket", "")

	err := tr.Transfer(context.Background(), dir, "a-1.0-py3-none-any.whl")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrTransferFailure))
	assert.False(t, w.closed, "a failed upload must not be committed")
	assert.Error(t, w.ctx.Err(), "the upload context must be canceled")
}

func TestGCSTransferCommitFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a-1.0-py3-none-any.whl")
	require.NoError(t, os.WriteFile(path, []byte("wheel"), 0644))

	w := &fakeObjectWriter{closeErr: errors.New("googleapi: Error 403")}
	tr := newGCSTransferer(w.open, "bucket", "")

	err := tr.Transfer(context.Background(), path, "a-1.0-py3-none-any.whl")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrTransferFailure))
	assert.Contains(t, err.Error(), "403")
}

func TestFileTransfer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a-1.0-py3-none-any.whl")
	require.NoError(t, os.WriteFile(src, []byte("wheel"), 0644))

	tr, err := NewFileTransferer(filepath.Join(dir, "bucket"), "https://h/")
	require.NoError(t, err)

	require.NoError(t, tr.Transfer(context.Background(), src, "wheels/a-1.0-py3-none-any.whl"))
	data, err := os.ReadFile(filepath.Join(dir, "bucket", "wheels", "a-1.0-py3-none-any.whl"))
	require.NoError(t, err)
	assert.Equal(t, "wheel", string(data))
	assert.Equal(t, "https://h/wheels/a-1.0-py3-none-any.whl", tr.URL("wheels/a-1.0-py3-none-any.whl"))

	err = tr.Transfer(context.Background(), filepath.Join(dir, "missing.whl"), "missing.whl")
	assert.True(t, models.IsErrorType(err, models.ErrTransferFailure))
}

func TestFileTransferOntoItself(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	const key = "wheels/a-1.0-py3-none-any.whl"
	src := filepath.Join(root, "wheels", "a-1.0-py3-none-any.whl")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte("wheel-bytes"), 0644))

	tr, err := NewFileTransferer(root, "https://h")
	require.NoError(t, err)

	require.NoError(t, tr.Transfer(context.Background(), src, key))

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "wheel-bytes", string(data))
}

func TestFileTransferReplacesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a-1.0-py3-none-any.whl")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))

	root := filepath.Join(dir, "bucket")
	dst := filepath.Join(root, "a-1.0-py3-none-any.whl")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(dst, []byte("old-and-longer"), 0644))

	tr, err := NewFileTransferer(root, "https://h")
	require.NoError(t, err)
	require.NoError(t, tr.Transfer(context.Background(), src, "a-1.0-py3-none-any.whl"))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left in the bucket")
}

func TestNew(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := New(ctx, &models.Config{Backend: "ftp"})
	assert.True(t, models.IsErrorType(err, models.ErrInvalidConfig))

	_, err = New(ctx, &models.Config{Backend: models.BackendS3})
	assert.True(t, models.IsErrorType(err, models.ErrInvalidConfig), "s3 without bucket: %v", err)

	_, err = New(ctx, &models.Config{Backend: models.BackendGCS})
	assert.True(t, models.IsErrorType(err, models.ErrInvalidConfig), "gcs without bucket: %v", err)

	_, err = New(ctx, &models.Config{Backend: models.BackendFile, BaseURL: "https://h"})
	assert.True(t, models.IsErrorType(err, models.ErrInvalidConfig), "file without root: %v", err)

	tr, err := New(ctx, &models.Config{Backend: models.BackendFile, Root: t.TempDir(), BaseURL: "https://h"})
	require.NoError(t, err)
	assert.IsType(t, &FileTransferer{}, tr)
}

func TestContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/zip", contentType("a.whl"))
	assert.Equal(t, "text/plain; charset=utf-8", contentType("a.whl.metadata"))
	assert.Equal(t, "application/pgp-signature", contentType("a.whl.asc"))
	assert.Equal(t, "application/octet-stream", contentType("index.html"))
}
