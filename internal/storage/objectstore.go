package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes the S3-compatible object store connection.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// UploadResult describes a stored attachment.
type UploadResult struct {
	URL    string
	Bytes  int64
	Format string
}

// ProgressFunc receives upload progress as {loaded, total} byte counts.
type ProgressFunc func(loaded, total int64)

// ObjectStore streams attachment binaries to durable storage.
type ObjectStore interface {
	Upload(ctx context.Context, filename string, contentType string, size int64, reader io.Reader, onProgress ProgressFunc) (UploadResult, error)
}

// MinioStore is a minio-backed ObjectStore.
type MinioStore struct {
	cfg    Config
	client *minio.Client
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	store := &MinioStore{cfg: cfg, client: client}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Upload streams the binary under a fresh object key and returns its URL.
// The original filename only contributes its extension to the key.
func (s *MinioStore) Upload(ctx context.Context, filename string, contentType string, size int64, reader io.Reader, onProgress ProgressFunc) (UploadResult, error) {
	key := uuid.NewString() + filepath.Ext(filename)

	body := reader
	if onProgress != nil {
		body = &progressReader{reader: reader, total: size, onProgress: onProgress}
	}

	info, err := s.client.PutObject(ctx, s.cfg.Bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload object: %w", err)
	}

	return UploadResult{
		URL:    s.objectURL(key),
		Bytes:  info.Size,
		Format: contentType,
	}, nil
}

func (s *MinioStore) objectURL(key string) string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, key)
}

// progressReader reports cumulative bytes read to the progress callback.
type progressReader struct {
	reader     io.Reader
	loaded     int64
	total      int64
	onProgress ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.loaded += int64(n)
		r.onProgress(r.loaded, r.total)
	}
	return n, err
}
