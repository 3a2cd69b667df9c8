// Package minio is the object storage side of the media lifecycle. It issues
// presigned URLs so file bytes go straight from the client to the bucket.
package minio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/atlasnap-service/internal/config"
	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
)

type Store struct {
	client     *minio.Client
	bucketName string
	timeout    time.Duration
	now        func() time.Time
}

// New creates a client for the configured bucket. The region is always set
// so presigning never needs a bucket-location round trip.
func New(cfg config.MinIO) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Store{
		client:     client,
		bucketName: cfg.BucketName,
		timeout:    timeout,
		now:        time.Now,
	}, nil
}

// Bucket returns the name of the bucket all keys live in.
func (s *Store) Bucket() string {
	return s.bucketName
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *Store) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		slog.Info("Created bucket", slog.String("bucket", s.bucketName))
	}

	return nil
}

// GenerateUploadKey builds media/<owner>/<yyyy>/<mm>/<dd>/<random>[.ext].
// The extension of filename is kept; the date is UTC.
func (s *Store) GenerateUploadKey(ownerID, filename string) string {
	suffix := uuid.New().String()[:8]
	key := fmt.Sprintf("%s%s/%s", media.OwnerKeyPrefix(ownerID), s.now().UTC().Format("2006/01/02"), suffix)

	if ext := filepath.Ext(filename); len(ext) > 1 {
		key += ext
	}
	return key
}

// PresignedUploadURL returns a PUT URL. When contentType is set the client
// must send the same Content-Type header.
func (s *Store) PresignedUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	headers := http.Header{}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}

	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucketName, key, expiresIn, nil, headers)
	if err != nil {
		return "", &media.StorageError{Op: "presign upload", Key: key, Err: err}
	}
	return u.String(), nil
}

// PresignedDownloadURL returns a GET URL. A non-empty filename forces the
// browser to download under that name.
func (s *Store) PresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var params url.Values
	if filename != "" {
		params = url.Values{}
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiresIn, params)
	if err != nil {
		return "", &media.StorageError{Op: "presign download", Key: key, Err: err}
	}
	return u.String(), nil
}

// DeleteObject removes one object. Failures are logged and reported as false.
func (s *Store) DeleteObject(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		slog.Warn("Failed to delete object", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// DeleteObjects removes keys in one batch call. An empty list is a no-op.
func (s *Store) DeleteObjects(ctx context.Context, keys []string) bool {
	if len(keys) == 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	ok := true
	for rerr := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		slog.Warn("Failed to delete object",
			slog.String("key", rerr.ObjectName),
			slog.String("error", rerr.Err.Error()))
		ok = false
	}
	return ok
}

// HeadObject fetches object metadata without the body. It returns nil when
// the object is missing or the call fails.
func (s *Store) HeadObject(ctx context.Context, key string) *media.ObjectInfo {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			slog.Warn("Failed to stat object", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil
	}

	return &media.ObjectInfo{
		ContentType:   info.ContentType,
		ContentLength: info.Size,
		LastModified:  info.LastModified,
		ETag:          info.ETag,
	}
}
