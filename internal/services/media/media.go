// Package media coordinates the two-phase upload protocol: presigned URLs are
// issued without touching the database, and rows only appear once the client
// confirms what it uploaded.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/princekumarofficial/atlasnap-service/internal/config"
	"github.com/princekumarofficial/atlasnap-service/internal/storage"
	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Notifier is told about completed confirms and deletes. Its errors are
// logged and never change the outcome of the operation.
type Notifier interface {
	PublishMediaConfirmed(ownerID string, result media.ConfirmResult) error
	PublishMediaDeleted(ownerID, mediaID string) error
}

type Service struct {
	repo      storage.MediaRepository
	blobs     storage.BlobStore
	validator *Validator
	cfg       config.Media
	bucket    string
	notifier  Notifier
}

type Option func(*Service)

// WithNotifier sets the receiver of media events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// NewService creates a new media service instance
func NewService(repo storage.MediaRepository, blobs storage.BlobStore, cfg config.Media, bucket string, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		blobs:     blobs,
		validator: NewValidator(cfg),
		cfg:       cfg,
		bucket:    bucket,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) urlExpiry() time.Duration {
	if s.cfg.URLExpiry <= 0 {
		return time.Hour
	}
	return s.cfg.URLExpiry
}

func (s *Service) checkBatch(n int) error {
	if s.cfg.MaxBatchSize > 0 && n > s.cfg.MaxBatchSize {
		return fmt.Errorf("%w: %d files, at most %d allowed", media.ErrBatchTooLarge, n, s.cfg.MaxBatchSize)
	}
	return nil
}

// GenerateUploadURLs issues one presigned PUT per file. Every file is
// validated before any key is generated, and any failure fails the whole
// batch with no partial result. Nothing is written to the database.
func (s *Service) GenerateUploadURLs(ctx context.Context, ownerID string, files []media.UploadRequest) ([]media.UploadInfo, error) {
	if err := s.checkBatch(len(files)); err != nil {
		return nil, err
	}

	for _, f := range files {
		if _, err := s.validator.ClassifyAndValidate(f.ContentType, f.FileSize); err != nil {
			return nil, err
		}
	}

	expiry := s.urlExpiry()
	uploads := make([]media.UploadInfo, 0, len(files))
	for _, f := range files {
		key := s.blobs.GenerateUploadKey(ownerID, f.Filename)

		url, err := s.blobs.PresignedUploadURL(ctx, key, f.ContentType, expiry)
		if err != nil {
			return nil, fmt.Errorf("generate upload url: %w", err)
		}

		uploads = append(uploads, media.UploadInfo{
			UploadURL: url,
			Key:       key,
			Bucket:    s.bucket,
			ExpiresIn: int(expiry.Seconds()),
		})
	}

	return uploads, nil
}

// ConfirmUploads creates a PENDING row for each uploaded file. Files are
// handled independently: a failure is counted and the rest of the batch goes
// on. MediaIDs follows input order whatever the worker count. The only error
// returned is for an oversized batch.
func (s *Service) ConfirmUploads(ctx context.Context, ownerID string, files []media.ConfirmUploadRequest) (*media.ConfirmResult, error) {
	if err := s.checkBatch(len(files)); err != nil {
		return nil, err
	}

	ids := make([]string, len(files))
	errs := make([]error, len(files))

	if s.cfg.ConfirmWorkers <= 1 {
		for i, f := range files {
			ids[i], errs[i] = s.confirmOne(ctx, ownerID, f)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.cfg.ConfirmWorkers)
		for i, f := range files {
			g.Go(func() error {
				ids[i], errs[i] = s.confirmOne(ctx, ownerID, f)
				return nil
			})
		}
		g.Wait()
	}

	result := media.ConfirmResult{MediaIDs: make([]string, 0, len(files))}
	for i, err := range errs {
		if err != nil {
			result.Failed++
			slog.Warn("Failed to confirm upload",
				slog.String("user_id", ownerID),
				slog.String("key", files[i].Key),
				slog.String("error", err.Error()))
			continue
		}
		result.MediaIDs = append(result.MediaIDs, ids[i])
	}
	result.Created = len(result.MediaIDs)

	if result.Created > 0 && s.notifier != nil {
		if err := s.notifier.PublishMediaConfirmed(ownerID, result); err != nil {
			slog.Warn("Failed to publish media confirmed event", slog.String("error", err.Error()))
		}
	}

	return &result, nil
}

func checkConfirmItem(f media.ConfirmUploadRequest) error {
	switch {
	case f.Key == "" || len(f.Key) > media.MaxKeyLength:
		return fmt.Errorf("%w: key must be 1-%d characters", media.ErrInvalidUpload, media.MaxKeyLength)
	case f.OriginalFilename == "" || len(f.OriginalFilename) > media.MaxKeyLength:
		return fmt.Errorf("%w: original_filename must be 1-%d characters", media.ErrInvalidUpload, media.MaxKeyLength)
	case f.FileSize <= 0:
		return fmt.Errorf("%w: file_size must be positive", media.ErrInvalidUpload)
	}
	return nil
}

func (s *Service) confirmOne(ctx context.Context, ownerID string, f media.ConfirmUploadRequest) (string, error) {
	if err := checkConfirmItem(f); err != nil {
		return "", err
	}

	mediaType, err := s.validator.ClassifyAndValidate(f.ContentType, f.FileSize)
	if err != nil {
		return "", err
	}

	if !media.OwnsKey(ownerID, f.Key) {
		return "", media.ErrForeignKey
	}

	if s.cfg.VerifyUploads && s.blobs.HeadObject(ctx, f.Key) == nil {
		return "", media.ErrObjectMissing
	}

	m := &media.Media{
		OwnerID:          ownerID,
		MediaType:        mediaType,
		Status:           media.StatusPending,
		StorageKey:       f.Key,
		StorageBucket:    s.bucket,
		OriginalFilename: f.OriginalFilename,
		FileSize:         f.FileSize,
		MimeType:         f.ContentType,
	}
	if err := s.repo.InsertMedia(ctx, m); err != nil {
		return "", err
	}

	return m.ID, nil
}

// DownloadURL presigns a GET for the stored blob, suggesting the original
// filename to the browser.
func (s *Service) DownloadURL(ctx context.Context, m *media.Media) (*media.DownloadURL, error) {
	expiry := s.urlExpiry()

	url, err := s.blobs.PresignedDownloadURL(ctx, m.StorageKey, expiry, m.OriginalFilename)
	if err != nil {
		return nil, fmt.Errorf("generate download url: %w", err)
	}

	return &media.DownloadURL{URL: url, ExpiresIn: int(expiry.Seconds())}, nil
}

// List returns one page of the owner's media. page is 1-indexed; values out
// of range fall back to the first page and the default size.
func (s *Service) List(ctx context.Context, ownerID string, filters media.Filters, page, size int) (*media.Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}

	items, total, err := s.repo.ListMedia(ctx, ownerID, filters, page, size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []media.Media{}
	}

	return &media.Page{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: pageCount(total, size),
	}, nil
}

func pageCount(total, size int) int {
	if total == 0 {
		return 0
	}
	return (total + size - 1) / size
}

func (s *Service) Get(ctx context.Context, ownerID, mediaID string) (*media.Media, error) {
	return s.repo.GetMedia(ctx, mediaID, ownerID)
}

// Update applies the fields present in patch and returns the stored row.
func (s *Service) Update(ctx context.Context, m *media.Media, patch media.Patch) (*media.Media, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpdateMedia(ctx, m, patch)
}

// Delete removes the blob, then the row. A failed blob delete is logged and
// ignored: once the row is gone the media is gone for the user.
func (s *Service) Delete(ctx context.Context, m *media.Media) error {
	if !s.blobs.DeleteObject(ctx, m.StorageKey) {
		slog.Warn("Blob delete failed, removing row anyway",
			slog.String("media_id", m.ID),
			slog.String("key", m.StorageKey))
	}

	if err := s.repo.DeleteMedia(ctx, m); err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.PublishMediaDeleted(m.OwnerID, m.ID); err != nil {
			slog.Warn("Failed to publish media deleted event", slog.String("error", err.Error()))
		}
	}

	return nil
}
