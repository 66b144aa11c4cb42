package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/okian/hotlap/pkg/logger"
	"github.com/okian/hotlap/pkg/metrics"
)

// S3Config carries the settings for the remote backend.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// S3Store stores blobs as objects keyed ghosts/<digest>.<ext> in an
// S3-compatible bucket.
type S3Store struct {
	client *minio.Client
	bucket string
	ext    string
	logger logger.Logger
}

// S3Option applies a configuration option to the S3Store.
type S3Option func(*S3Store)

// WithS3Extension overrides the replay file extension.
func WithS3Extension(ext string) S3Option {
	return func(s *S3Store) {
		if ext != "" {
			s.ext = ext
		}
	}
}

// WithS3Logger sets a custom logger for the store.
func WithS3Logger(l logger.Logger) S3Option {
	return func(s *S3Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewS3Store connects to the object store and ensures the bucket exists.
func NewS3Store(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	s := &S3Store{
		client: client,
		bucket: cfg.Bucket,
		ext:    DefaultExt,
		logger: logger.Get().Named("blob"),
	}

	for _, opt := range opts {
		opt(s)
	}

	exists, err := client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackend, err)
		}
		s.logger.Info(ctx, "bucket created", logger.String("bucket", s.bucket))
	}

	return s, nil
}

// Backend identifies the implementation.
func (s *S3Store) Backend() string { return BackendS3 }

// Put uploads the blob under its digest-derived object key. Re-putting an
// existing digest overwrites the object with identical bytes.
func (s *S3Store) Put(ctx context.Context, digest string, r io.Reader, size int64) (string, error) {
	start := time.Now()
	key := objectKey(digest, s.ext)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPut, err)
	}

	metrics.RecordBlobPutLatency(BackendS3, float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "blob uploaded",
		logger.String("key", key),
		logger.Int64("size", size),
	)
	return key, nil
}

// Open stats the object to learn its length, then streams it.
func (s *S3Store) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, locator, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return obj, info.Size, nil
}
