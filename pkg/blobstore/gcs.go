// Package blobstore keeps encoded passport photos out of the relational row
// when a bucket is configured.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrNotFound the object does not exist
var ErrNotFound = errors.New("blob not found")

// Store object storage used for photos
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// PhotoKey object key for a registration photo
func PhotoKey(registrationID string) string {
	return "registrations/" + registrationID + ".jpg"
}

// GCS stores blobs in a Google Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	logger *zap.Logger
}

// NewGCS opens a client for bucket. credentialsFile may be empty to use
// application default credentials.
func NewGCS(ctx context.Context, bucket, credentialsFile string, logger *zap.Logger) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("gcs blob: bucket not set")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("gcs blob: credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs blob: failed in creating storage client: %w", err)
	}

	logger.Info("gcs blob store ready", zap.String("bucket", bucket))

	return &GCS{
		client: client,
		bucket: client.Bucket(bucket),
		name:   bucket,
		logger: logger,
	}, nil
}

// Put uploads data under key, replacing any existing object
func (s *GCS) Put(ctx context.Context, key, contentType string, data []byte) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "private, max-age=0"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs blob: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs blob: commit %s: %w", key, err)
	}

	s.logger.Debug("blob stored",
		zap.String("bucket", s.name),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Get downloads the object at key
func (s *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gcs blob: read %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs blob: read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object at key. A missing object is not an error.
func (s *GCS) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs blob: delete %s: %w", key, err)
	}
	s.logger.Debug("blob deleted", zap.String("bucket", s.name), zap.String("key", key))
	return nil
}

// Close closes the GCS client
func (s *GCS) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
