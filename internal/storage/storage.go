package storage

import (
	"context"
	"time"

	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
	"github.com/princekumarofficial/atlasnap-service/internal/types/users"
)

// MediaRepository persists Media rows. Every method is scoped by owner.
type MediaRepository interface {
	InsertMedia(ctx context.Context, m *media.Media) error
	GetMedia(ctx context.Context, mediaID, ownerID string) (*media.Media, error)
	ListMedia(ctx context.Context, ownerID string, filters media.Filters, page, size int) ([]media.Media, int, error)
	UpdateMedia(ctx context.Context, m *media.Media, patch media.Patch) (*media.Media, error)
	DeleteMedia(ctx context.Context, m *media.Media) error
}

// BlobStore issues presigned URLs and manages objects in one bucket.
type BlobStore interface {
	GenerateUploadKey(ownerID, filename string) string
	PresignedUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, error)
	PresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration, filename string) (string, error)
	DeleteObject(ctx context.Context, key string) bool
	DeleteObjects(ctx context.Context, keys []string) bool
	HeadObject(ctx context.Context, key string) *media.ObjectInfo
}

// UserStore backs the identity provider.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*users.User, error)
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
	GetUserByID(ctx context.Context, userID string) (*users.User, error)
	MarkUserVerified(ctx context.Context, userID string) error
}
