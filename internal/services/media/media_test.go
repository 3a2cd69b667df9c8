package media

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
)

const (
	ownerA = "11111111-1111-1111-1111-111111111111"
	ownerB = "22222222-2222-2222-2222-222222222222"
)

func newTestService(opts ...Option) (*Service, *memRepo, *fakeBlobs) {
	repo := newMemRepo()
	blobs := newFakeBlobs()
	return NewService(repo, blobs, testMediaConfig(), "atlasnap-test", opts...), repo, blobs
}

func TestGenerateUploadURLs(t *testing.T) {
	svc, repo, blobs := newTestService()

	uploads, err := svc.GenerateUploadURLs(context.Background(), ownerA, []media.UploadRequest{
		{Filename: "beach.jpg", ContentType: "image/jpeg", FileSize: 2048},
		{Filename: "surf.mp4", ContentType: "video/mp4", FileSize: 4096},
	})
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	for i, up := range uploads {
		assert.Equal(t, "atlasnap-test", up.Bucket)
		assert.Equal(t, 3600, up.ExpiresIn)
		assert.True(t, media.OwnsKey(ownerA, up.Key))
		assert.Equal(t, blobs.presigned[i], up.Key)
		assert.Contains(t, up.UploadURL, up.Key)
	}
	assert.Empty(t, repo.rows, "generating URLs must not write rows")
}

func TestGenerateUploadURLs_OneInvalidFailsBatch(t *testing.T) {
	svc, _, blobs := newTestService()

	uploads, err := svc.GenerateUploadURLs(context.Background(), ownerA, []media.UploadRequest{
		{Filename: "a.jpg", ContentType: "image/jpeg", FileSize: 10},
		{Filename: "b.pdf", ContentType: "application/pdf", FileSize: 10},
		{Filename: "c.png", ContentType: "image/png", FileSize: 10},
	})
	assert.ErrorIs(t, err, media.ErrUnsupportedMediaType)
	assert.Nil(t, uploads)
	assert.Zero(t, blobs.keys, "no key may be generated when any file is invalid")
	assert.Empty(t, blobs.presigned)
}

func TestGenerateUploadURLs_TooLarge(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GenerateUploadURLs(context.Background(), ownerA, []media.UploadRequest{
		{Filename: "a.mp4", ContentType: "video/mp4", FileSize: 10*1024*1024 + 1},
	})
	assert.ErrorIs(t, err, media.ErrFileTooLarge)
}

func TestGenerateUploadURLs_BatchLimit(t *testing.T) {
	svc, _, _ := newTestService()

	files := make([]media.UploadRequest, 6)
	for i := range files {
		files[i] = media.UploadRequest{Filename: "a.jpg", ContentType: "image/jpeg", FileSize: 1}
	}

	_, err := svc.GenerateUploadURLs(context.Background(), ownerA, files)
	assert.ErrorIs(t, err, media.ErrBatchTooLarge)

	_, err = svc.GenerateUploadURLs(context.Background(), ownerA, files[:5])
	assert.NoError(t, err)
}

func TestGenerateUploadURLs_StorageFailure(t *testing.T) {
	svc, _, blobs := newTestService()
	blobs.presignErr = errProvider

	uploads, err := svc.GenerateUploadURLs(context.Background(), ownerA, []media.UploadRequest{
		{Filename: "a.jpg", ContentType: "image/jpeg", FileSize: 1},
	})
	assert.ErrorIs(t, err, media.ErrStorage)
	assert.ErrorIs(t, err, errProvider)
	assert.Nil(t, uploads)
}

func TestConfirmUploads_PartialFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, repo, _ := newTestService(WithNotifier(notifier))

	files := []media.ConfirmUploadRequest{
		{Key: media.OwnerKeyPrefix(ownerA) + "2026/01/01/one.jpg", OriginalFilename: "one.jpg", ContentType: "image/jpeg", FileSize: 100},
		{Key: media.OwnerKeyPrefix(ownerA) + "2026/01/01/two.txt", OriginalFilename: "two.txt", ContentType: "text/plain", FileSize: 100},
		{Key: media.OwnerKeyPrefix(ownerA) + "2026/01/01/three.mp4", OriginalFilename: "three.mp4", ContentType: "video/mp4", FileSize: 100},
	}

	result, err := svc.ConfirmUploads(context.Background(), ownerA, files)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.MediaIDs, 2)

	first := repo.rows[result.MediaIDs[0]]
	third := repo.rows[result.MediaIDs[1]]
	assert.Equal(t, files[0].Key, first.StorageKey)
	assert.Equal(t, media.TypeImage, first.MediaType)
	assert.Equal(t, files[2].Key, third.StorageKey)
	assert.Equal(t, media.TypeVideo, third.MediaType)

	for _, id := range result.MediaIDs {
		row := repo.rows[id]
		assert.Equal(t, media.StatusPending, row.Status)
		assert.Equal(t, ownerA, row.OwnerID)
		assert.Equal(t, "atlasnap-test", row.StorageBucket)
		assert.False(t, row.IsFavorite)
	}

	require.Len(t, notifier.confirmed, 1)
	assert.Equal(t, *result, notifier.confirmed[0])
}

func TestConfirmUploads_MalformedItemsCountAsFailures(t *testing.T) {
	svc, repo, _ := newTestService()
	prefix := media.OwnerKeyPrefix(ownerA)

	result, err := svc.ConfirmUploads(context.Background(), ownerA, []media.ConfirmUploadRequest{
		{Key: prefix + "ok.jpg", OriginalFilename: "ok.jpg", ContentType: "image/jpeg", FileSize: 10},
		{Key: prefix + "no-type.jpg", OriginalFilename: "no-type.jpg", ContentType: "", FileSize: 10},
		{Key: prefix + "empty.jpg", OriginalFilename: "empty.jpg", ContentType: "image/jpeg", FileSize: 0},
		{Key: prefix + "neg.jpg", OriginalFilename: "neg.jpg", ContentType: "image/jpeg", FileSize: -5},
		{Key: prefix + strings.Repeat("k", media.MaxKeyLength), OriginalFilename: "long.jpg", ContentType: "image/jpeg", FileSize: 10},
		{Key: prefix + "noname.jpg", OriginalFilename: "", ContentType: "image/jpeg", FileSize: 10},
		{Key: "", OriginalFilename: "nokey.jpg", ContentType: "image/jpeg", FileSize: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 6, result.Failed)
	require.Len(t, result.MediaIDs, 1)
	assert.Equal(t, prefix+"ok.jpg", repo.rows[result.MediaIDs[0]].StorageKey)
}

func TestConfirmUploads_InsertFailureIsIsolated(t *testing.T) {
	svc, repo, _ := newTestService()

	bad := media.OwnerKeyPrefix(ownerA) + "dup.jpg"
	repo.failKeys[bad] = media.ErrConflict

	result, err := svc.ConfirmUploads(context.Background(), ownerA, []media.ConfirmUploadRequest{
		{Key: bad, OriginalFilename: "dup.jpg", ContentType: "image/jpeg", FileSize: 1},
		{Key: media.OwnerKeyPrefix(ownerA) + "ok.jpg", OriginalFilename: "ok.jpg", ContentType: "image/jpeg", FileSize: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
}

func TestConfirmUploads_RejectsForeignKey(t *testing.T) {
	svc, repo, _ := newTestService()

	result, err := svc.ConfirmUploads(context.Background(), ownerA, []media.ConfirmUploadRequest{
		{Key: media.OwnerKeyPrefix(ownerB) + "x.jpg", OriginalFilename: "x.jpg", ContentType: "image/jpeg", FileSize: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.NotNil(t, result.MediaIDs)
	assert.Empty(t, repo.rows)
}

func TestConfirmUploads_VerifyUploads(t *testing.T) {
	repo := newMemRepo()
	blobs := newFakeBlobs()
	cfg := testMediaConfig()
	cfg.VerifyUploads = true
	svc := NewService(repo, blobs, cfg, "atlasnap-test")

	present := media.OwnerKeyPrefix(ownerA) + "present.jpg"
	blobs.objects[present] = true

	result, err := svc.ConfirmUploads(context.Background(), ownerA, []media.ConfirmUploadRequest{
		{Key: present, OriginalFilename: "present.jpg", ContentType: "image/jpeg", FileSize: 1},
		{Key: media.OwnerKeyPrefix(ownerA) + "never-uploaded.jpg", OriginalFilename: "n.jpg", ContentType: "image/jpeg", FileSize: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
}

func TestConfirmUploads_ConcurrentKeepsInputOrder(t *testing.T) {
	repo := newMemRepo()
	cfg := testMediaConfig()
	cfg.ConfirmWorkers = 4
	svc := NewService(repo, newFakeBlobs(), cfg, "atlasnap-test")

	var files []media.ConfirmUploadRequest
	for _, name := range []string{"a.jpg", "b.gif", "c.jpg", "d.png", "e.mp4"} {
		ct := "image/jpeg"
		switch {
		case strings.HasSuffix(name, ".gif"):
			ct = "image/gif"
		case strings.HasSuffix(name, ".png"):
			ct = "image/png"
		case strings.HasSuffix(name, ".mp4"):
			ct = "video/mp4"
		}
		files = append(files, media.ConfirmUploadRequest{
			Key: media.OwnerKeyPrefix(ownerA) + name, OriginalFilename: name, ContentType: ct, FileSize: 1,
		})
	}

	result, err := svc.ConfirmUploads(context.Background(), ownerA, files)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 1, result.Failed)

	var keys []string
	for _, id := range result.MediaIDs {
		keys = append(keys, repo.rows[id].StorageKey)
	}
	assert.Equal(t, []string{files[0].Key, files[2].Key, files[3].Key, files[4].Key}, keys)
}

func TestConfirmUploads_BatchLimit(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.ConfirmUploads(context.Background(), ownerA, make([]media.ConfirmUploadRequest, 6))
	assert.ErrorIs(t, err, media.ErrBatchTooLarge)
	assert.Nil(t, result)
}

func TestUploadKeyRoundTrip(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	uploads, err := svc.GenerateUploadURLs(ctx, ownerA, []media.UploadRequest{
		{Filename: "lake.png", ContentType: "image/png", FileSize: 512},
	})
	require.NoError(t, err)
	key := uploads[0].Key

	result, err := svc.ConfirmUploads(ctx, ownerA, []media.ConfirmUploadRequest{
		{Key: key, OriginalFilename: "lake.png", ContentType: "image/png", FileSize: 512},
	})
	require.NoError(t, err)
	require.Len(t, result.MediaIDs, 1)
	assert.Equal(t, key, repo.rows[result.MediaIDs[0]].StorageKey)
}

func seedMedia(t *testing.T, svc *Service, owner string, n int) []string {
	t.Helper()

	files := make([]media.ConfirmUploadRequest, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, media.ConfirmUploadRequest{
			Key:              media.OwnerKeyPrefix(owner) + strings.Repeat("k", i+1) + ".jpg",
			OriginalFilename: "photo.jpg",
			ContentType:      "image/jpeg",
			FileSize:         1,
		})
	}

	var ids []string
	for start := 0; start < len(files); start += svc.cfg.MaxBatchSize {
		end := min(start+svc.cfg.MaxBatchSize, len(files))
		result, err := svc.ConfirmUploads(context.Background(), owner, files[start:end])
		require.NoError(t, err)
		require.Zero(t, result.Failed)
		ids = append(ids, result.MediaIDs...)
	}
	return ids
}

func TestList_Pagination(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	seedMedia(t, svc, ownerA, 25)
	seedMedia(t, svc, ownerB, 3)

	page, err := svc.List(ctx, ownerA, media.Filters{}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 20)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Size)

	page, err = svc.List(ctx, ownerA, media.Filters{}, 2, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 2, page.Pages)
	for _, m := range page.Items {
		assert.Equal(t, ownerA, m.OwnerID)
	}
}

func TestList_Empty(t *testing.T) {
	svc, _, _ := newTestService()

	page, err := svc.List(context.Background(), ownerA, media.Filters{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Pages)
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestList_NewestFirstAndFiltered(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	ids := seedMedia(t, svc, ownerA, 3)

	fav := true
	_, err := svc.Update(ctx, &media.Media{ID: ids[0], OwnerID: ownerA}, media.Patch{IsFavorite: media.Some(true)})
	require.NoError(t, err)

	page, err := svc.List(ctx, ownerA, media.Filters{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[0], page.Items[2].ID)

	page, err = svc.List(ctx, ownerA, media.Filters{IsFavorite: &fav}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, pageCount(0, 20))
	assert.Equal(t, 1, pageCount(1, 20))
	assert.Equal(t, 1, pageCount(20, 20))
	assert.Equal(t, 2, pageCount(21, 20))
	assert.Equal(t, 25, pageCount(25, 1))
}

func TestGet_OwnershipIsolation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	ids := seedMedia(t, svc, ownerB, 1)

	_, err := svc.Get(ctx, ownerA, ids[0])
	assert.ErrorIs(t, err, media.ErrNotFound)

	m, err := svc.Get(ctx, ownerB, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], m.ID)
}

func TestUpdate_PartialAndIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	ids := seedMedia(t, svc, ownerA, 1)

	m, err := svc.Get(ctx, ownerA, ids[0])
	require.NoError(t, err)

	m, err = svc.Update(ctx, m, media.Patch{
		Description: media.Some("Fjord crossing"),
		UserTags:    media.Some([]string{"norway", "ferry"}),
	})
	require.NoError(t, err)

	fav := media.Patch{IsFavorite: media.Some(true)}
	once, err := svc.Update(ctx, m, fav)
	require.NoError(t, err)
	twice, err := svc.Update(ctx, m, fav)
	require.NoError(t, err)

	assert.True(t, twice.IsFavorite)
	require.NotNil(t, twice.Description)
	assert.Equal(t, "Fjord crossing", *twice.Description)
	assert.Equal(t, []string{"norway", "ferry"}, twice.UserTags)
	assert.Equal(t, once.IsFavorite, twice.IsFavorite)
	assert.Equal(t, once.Description, twice.Description)
	assert.Equal(t, once.UserTags, twice.UserTags)
}

func TestUpdate_RejectsNullFavorite(t *testing.T) {
	svc, _, _ := newTestService()
	ids := seedMedia(t, svc, ownerA, 1)

	_, err := svc.Update(context.Background(), &media.Media{ID: ids[0], OwnerID: ownerA}, media.Patch{IsFavorite: media.Null[bool]()})
	assert.ErrorIs(t, err, media.ErrNullFavorite)
}

func TestDelete_RowGoneEvenIfBlobDeleteFails(t *testing.T) {
	notifier := &recordingNotifier{err: errProvider}
	svc, _, blobs := newTestService(WithNotifier(notifier))
	blobs.deleteOK = false
	ctx := context.Background()
	ids := seedMedia(t, svc, ownerA, 1)

	m, err := svc.Get(ctx, ownerA, ids[0])
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, m))
	assert.Equal(t, []string{m.StorageKey}, blobs.deleted)
	assert.Equal(t, []string{m.ID}, notifier.deleted)

	_, err = svc.Get(ctx, ownerA, ids[0])
	assert.ErrorIs(t, err, media.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, m), media.ErrNotFound)
}

func TestDownloadURL(t *testing.T) {
	svc, _, _ := newTestService()

	dl, err := svc.DownloadURL(context.Background(), &media.Media{
		StorageKey:       media.OwnerKeyPrefix(ownerA) + "x.jpg",
		OriginalFilename: "Sahara.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, 3600, dl.ExpiresIn)
	assert.Contains(t, dl.URL, "name=Sahara.jpg")
}
