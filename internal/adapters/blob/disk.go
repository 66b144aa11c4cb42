package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/hotlap/pkg/logger"
	"github.com/okian/hotlap/pkg/metrics"
)

// DiskStore stores each blob as one file named <digest>.<ext> under a
// dedicated directory.
type DiskStore struct {
	dir    string
	ext    string
	logger logger.Logger
}

// DiskOption applies a configuration option to the DiskStore.
type DiskOption func(*DiskStore)

// WithDiskExtension overrides the replay file extension.
func WithDiskExtension(ext string) DiskOption {
	return func(s *DiskStore) {
		if ext != "" {
			s.ext = ext
		}
	}
}

// WithDiskLogger sets a custom logger for the store.
func WithDiskLogger(l logger.Logger) DiskOption {
	return func(s *DiskStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewDiskStore creates the ghost directory if needed and returns a store
// over it.
func NewDiskStore(dir string, opts ...DiskOption) (*DiskStore, error) {
	s := &DiskStore{
		dir:    dir,
		ext:    DefaultExt,
		logger: logger.Get().Named("blob"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return s, nil
}

// Backend identifies the implementation.
func (s *DiskStore) Backend() string { return BackendDisk }

// Put writes the blob to <dir>/<digest>.<ext>. When a file for the digest
// already exists with the expected size the write is skipped; the bytes
// are the same by content addressing.
func (s *DiskStore) Put(ctx context.Context, digest string, r io.Reader, size int64) (string, error) {
	start := time.Now()
	name := fileName(digest, s.ext)
	path := filepath.Join(s.dir, name)

	if fi, err := os.Stat(path); err == nil && fi.Size() == size {
		s.logger.Debug(ctx, "blob already stored", logger.String("file", name))
		return name, nil
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPut, err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("%w: %w", ErrPut, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("%w: %w", ErrPut, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("%w: %w", ErrPut, err)
	}

	metrics.RecordBlobPutLatency(BackendDisk, float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "blob written",
		logger.String("file", name),
		logger.Int64("size", size),
	)
	return name, nil
}

// Open returns the blob file and its length. The locator is reduced to its
// base name so stored records cannot point outside the ghost directory.
func (s *DiskStore) Open(_ context.Context, locator string) (io.ReadCloser, int64, error) {
	path := filepath.Join(s.dir, filepath.Base(locator))

	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return f, fi.Size(), nil
}
