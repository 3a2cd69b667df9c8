package media

import (
	"strings"
	"time"
)

// StorageKeyRoot is the first path segment of every upload key.
const StorageKeyRoot = "media/"

// OwnerKeyPrefix is the key prefix under which all of a user's uploads live.
func OwnerKeyPrefix(ownerID string) string {
	return StorageKeyRoot + ownerID + "/"
}

// OwnsKey reports whether key was issued under ownerID's prefix.
func OwnsKey(ownerID, key string) bool {
	prefix := OwnerKeyPrefix(ownerID)
	return len(key) > len(prefix) && strings.HasPrefix(key, prefix) && !strings.Contains(key, "..")
}

// Type is the kind of media, derived once from the declared content type.
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

// Valid reports whether t is a known media type.
func (t Type) Valid() bool {
	return t == TypeImage || t == TypeVideo
}

// Status of a media item. Confirm always creates PENDING rows; the remaining
// states belong to a processing pipeline that does not exist yet.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Media represents a confirmed upload record in the database
type Media struct {
	ID               string    `json:"id" db:"id"`
	OwnerID          string    `json:"owner_id" db:"owner_id"`
	MediaType        Type      `json:"media_type" db:"media_type"`
	Status           Status    `json:"status" db:"status"`
	StorageKey       string    `json:"storage_key" db:"storage_key"`
	StorageBucket    string    `json:"storage_bucket" db:"storage_bucket"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	FileSize         int64     `json:"file_size" db:"file_size"`
	MimeType         string    `json:"mime_type" db:"mime_type"`
	UserTags         []string  `json:"user_tags" db:"user_tags"`
	Description      *string   `json:"description" db:"description"`
	IsFavorite       bool      `json:"is_favorite" db:"is_favorite"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Filters narrows a listing. Nil fields are not applied; set fields are ANDed.
type Filters struct {
	MediaType  *Type
	Status     *Status
	IsFavorite *bool
}

// ObjectInfo is blob metadata fetched without downloading the object.
type ObjectInfo struct {
	ContentType   string    `json:"content_type"`
	ContentLength int64     `json:"content_length"`
	LastModified  time.Time `json:"last_modified"`
	ETag          string    `json:"etag"`
}
