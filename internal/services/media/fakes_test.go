package media

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
)

// memRepo is an in-memory MediaRepository that enforces owner scoping and
// key uniqueness the way the Postgres one does.
type memRepo struct {
	mu       sync.Mutex
	rows     map[string]media.Media
	failKeys map[string]error
	seq      int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]media.Media), failKeys: make(map[string]error)}
}

func (r *memRepo) InsertMedia(_ context.Context, m *media.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.failKeys[m.StorageKey]; ok {
		return err
	}
	for _, row := range r.rows {
		if row.StorageKey == m.StorageKey {
			return media.ErrConflict
		}
	}

	r.seq++
	m.ID = uuid.NewString()
	m.CreatedAt = time.Date(2026, 1, 1, 0, 0, r.seq, 0, time.UTC)
	m.UpdatedAt = m.CreatedAt
	r.rows[m.ID] = *m
	return nil
}

func (r *memRepo) GetMedia(_ context.Context, mediaID, ownerID string) (*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[mediaID]
	if !ok || row.OwnerID != ownerID {
		return nil, media.ErrNotFound
	}
	return &row, nil
}

func (r *memRepo) ListMedia(_ context.Context, ownerID string, f media.Filters, page, size int) ([]media.Media, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []media.Media
	for _, row := range r.rows {
		if row.OwnerID != ownerID {
			continue
		}
		if f.MediaType != nil && row.MediaType != *f.MediaType {
			continue
		}
		if f.Status != nil && row.Status != *f.Status {
			continue
		}
		if f.IsFavorite != nil && row.IsFavorite != *f.IsFavorite {
			continue
		}
		matched = append(matched, row)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start := (page - 1) * size
	if start >= len(matched) {
		return []media.Media{}, len(matched), nil
	}
	end := min(start+size, len(matched))
	return matched[start:end], len(matched), nil
}

func (r *memRepo) UpdateMedia(_ context.Context, m *media.Media, patch media.Patch) (*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[m.ID]
	if !ok || row.OwnerID != m.OwnerID {
		return nil, media.ErrNotFound
	}
	patch.Apply(&row)
	row.UpdatedAt = row.UpdatedAt.Add(time.Second)
	r.rows[m.ID] = row
	return &row, nil
}

func (r *memRepo) DeleteMedia(_ context.Context, m *media.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[m.ID]
	if !ok || row.OwnerID != m.OwnerID {
		return media.ErrNotFound
	}
	delete(r.rows, m.ID)
	return nil
}

// fakeBlobs records calls instead of talking to object storage.
type fakeBlobs struct {
	mu         sync.Mutex
	keys       int
	presigned  []string
	deleted    []string
	deleteOK   bool
	presignErr error
	objects    map[string]bool
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{deleteOK: true, objects: make(map[string]bool)}
}

func (b *fakeBlobs) GenerateUploadKey(ownerID, filename string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.keys++
	return fmt.Sprintf("%s2026/01/01/%08d-%s", media.OwnerKeyPrefix(ownerID), b.keys, filename)
}

func (b *fakeBlobs) PresignedUploadURL(_ context.Context, key, contentType string, expiresIn time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.presignErr != nil {
		return "", &media.StorageError{Op: "presign upload", Key: key, Err: b.presignErr}
	}
	b.presigned = append(b.presigned, key)
	return fmt.Sprintf("https://s3.test/bucket/%s?ct=%s&exp=%d", key, contentType, int(expiresIn.Seconds())), nil
}

func (b *fakeBlobs) PresignedDownloadURL(_ context.Context, key string, expiresIn time.Duration, filename string) (string, error) {
	if b.presignErr != nil {
		return "", &media.StorageError{Op: "presign download", Key: key, Err: b.presignErr}
	}
	return fmt.Sprintf("https://s3.test/bucket/%s?name=%s&exp=%d", key, filename, int(expiresIn.Seconds())), nil
}

func (b *fakeBlobs) DeleteObject(_ context.Context, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deleted = append(b.deleted, key)
	return b.deleteOK
}

func (b *fakeBlobs) DeleteObjects(ctx context.Context, keys []string) bool {
	ok := true
	for _, k := range keys {
		ok = b.DeleteObject(ctx, k) && ok
	}
	return ok
}

func (b *fakeBlobs) HeadObject(_ context.Context, key string) *media.ObjectInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.objects[key] {
		return nil
	}
	return &media.ObjectInfo{ContentLength: 1}
}

type recordingNotifier struct {
	confirmed []media.ConfirmResult
	deleted   []string
	err       error
}

func (n *recordingNotifier) PublishMediaConfirmed(_ string, result media.ConfirmResult) error {
	n.confirmed = append(n.confirmed, result)
	return n.err
}

func (n *recordingNotifier) PublishMediaDeleted(_ string, mediaID string) error {
	n.deleted = append(n.deleted, mediaID)
	return n.err
}

var errProvider = errors.New("connection reset")
