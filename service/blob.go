package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BlobStore holds artifact bytes. Blobs are grouped by a namespace, the
// policy number, and addressed afterwards by the location Put returns.
type BlobStore interface {
	// EnsureNamespace is idempotent
	EnsureNamespace(ctx context.Context, namespace string) error
	// Put replaces any blob already stored under the same name
	Put(ctx context.Context, namespace, name string, r io.Reader, size int64, contentType string) (string, error)
	Exists(ctx context.Context, location string) (bool, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

var (
	_ BlobStore = (*FilesystemBlobStore)(nil)
	_ BlobStore = (*MinioBlobStore)(nil)
)

// FilesystemBlobStore keeps blobs as files below a root directory
type FilesystemBlobStore struct {
	root string
}

func NewFilesystemBlobStore(root string) (*FilesystemBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", root, err)
	}
	return &FilesystemBlobStore{root: root}, nil
}

func (s *FilesystemBlobStore) EnsureNamespace(_ context.Context, namespace string) error {
	return os.MkdirAll(filepath.Join(s.root, namespace), 0o755)
}

func (s *FilesystemBlobStore) Put(ctx context.Context, namespace, name string, r io.Reader, _ int64, _ string) (string, error) {
	target := filepath.Join(s.root, namespace, name)
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", target, err)
	}
	return target, nil
}

func (s *FilesystemBlobStore) Exists(_ context.Context, location string) (bool, error) {
	_, err := os.Stat(location)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FilesystemBlobStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ctxReader stops a copy once the request is gone
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
