package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/princekumarofficial/atlasnap-service/internal/http/middleware"
	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/request"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/response"
)

// maxPage keeps (page-1)*size well inside the range Postgres accepts for OFFSET.
const maxPage = 1_000_000

// Service is the media lifecycle as seen by the API layer.
type Service interface {
	GenerateUploadURLs(ctx context.Context, ownerID string, files []media.UploadRequest) ([]media.UploadInfo, error)
	ConfirmUploads(ctx context.Context, ownerID string, files []media.ConfirmUploadRequest) (*media.ConfirmResult, error)
	DownloadURL(ctx context.Context, m *media.Media) (*media.DownloadURL, error)
	List(ctx context.Context, ownerID string, filters media.Filters, page, size int) (*media.Page, error)
	Get(ctx context.Context, ownerID, mediaID string) (*media.Media, error)
	Update(ctx context.Context, m *media.Media, patch media.Patch) (*media.Media, error)
	Delete(ctx context.Context, m *media.Media) error
}

type MediaHandlers struct {
	service Service
}

// NewMediaHandlers creates a new media handlers instance
func NewMediaHandlers(service Service) *MediaHandlers {
	return &MediaHandlers{service: service}
}

// writeMediaError maps lifecycle errors onto status codes. Anything unknown
// is logged and reported as a generic 500.
func writeMediaError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *media.ValidationError

	switch {
	case errors.Is(err, media.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, media.ErrNotFound)
	case errors.As(err, &ve) && errors.Is(err, media.ErrFileTooLarge):
		response.WriteError(w, http.StatusRequestEntityTooLarge, ve)
	case errors.As(err, &ve):
		response.WriteError(w, http.StatusBadRequest, ve)
	case errors.Is(err, media.ErrBatchTooLarge), errors.Is(err, media.ErrNullFavorite):
		response.WriteError(w, http.StatusBadRequest, err)
	default:
		slog.Error("Media request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		response.WriteError(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthenticated)
	}
	return userID, ok
}

// ownedMedia loads the {id} path media for the current user.
func (h *MediaHandlers) ownedMedia(w http.ResponseWriter, r *http.Request) (*media.Media, bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return nil, false
	}

	m, err := h.service.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeMediaError(w, r, err)
		return nil, false
	}
	return m, true
}

// GenerateUploadURLs issues presigned upload URLs for a batch of files
// @Summary Generate presigned upload URLs
// @Description Validates every file and returns one presigned PUT URL per file. One invalid file rejects the whole batch.
// @Tags media
// @Accept json
// @Produce json
// @Param request body media.BatchUploadRequest true "Files to upload"
// @Success 200 {object} media.BatchUploadResponse
// @Failure 400 {object} response.Response "Validation failed"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 413 {object} response.Response "File too large"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /api/v1/media/upload/urls [post]
func (h *MediaHandlers) GenerateUploadURLs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		var req media.BatchUploadRequest
		if !request.DecodeAndValidate(w, r, &req) {
			return
		}

		uploads, err := h.service.GenerateUploadURLs(r.Context(), userID, req.Files)
		if err != nil {
			writeMediaError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, media.BatchUploadResponse{Uploads: uploads})
	}
}

// ConfirmUploads creates media records for uploaded files
// @Summary Confirm uploads
// @Description Creates a pending media record per uploaded file. Files that fail are counted, the rest are still created.
// @Tags media
// @Accept json
// @Produce json
// @Param request body media.BatchConfirmRequest true "Uploaded files"
// @Success 200 {object} media.ConfirmResult
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /api/v1/media/upload/confirm [post]
func (h *MediaHandlers) ConfirmUploads() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		var req media.BatchConfirmRequest
		if !request.DecodeAndValidate(w, r, &req) {
			return
		}

		result, err := h.service.ConfirmUploads(r.Context(), userID, req.Files)
		if err != nil {
			writeMediaError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, result)
	}
}

// GetDownloadURL generates a presigned URL for media download
// @Summary Generate presigned download URL
// @Tags media
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} media.DownloadURL
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Media not found"
// @Security BearerAuth
// @Router /api/v1/media/{id}/download-url [get]
func (h *MediaHandlers) GetDownloadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.ownedMedia(w, r)
		if !ok {
			return
		}

		dl, err := h.service.DownloadURL(r.Context(), m)
		if err != nil {
			writeMediaError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, dl)
	}
}

// ListMedia lists the authenticated user's media
// @Summary List media
// @Description Newest first, filters are combined with AND.
// @Tags media
// @Produce json
// @Param media_type query string false "image or video"
// @Param status query string false "pending, processing, completed or failed"
// @Param is_favorite query bool false "Favorites only / non-favorites only"
// @Param page query int false "Page number, from 1" default(1)
// @Param size query int false "Page size, 1-100" default(20)
// @Success 200 {object} media.Page
// @Failure 400 {object} response.Response "Bad query"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /api/v1/media [get]
func (h *MediaHandlers) ListMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		q, err := parseListQuery(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}

		page, err := h.service.List(r.Context(), userID, q.filters, q.page, q.size)
		if err != nil {
			writeMediaError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, page)
	}
}

type listQuery struct {
	filters media.Filters
	page    int
	size    int
}

func parseListQuery(r *http.Request) (listQuery, error) {
	q := r.URL.Query()
	lq := listQuery{page: 1, size: 20}

	if v := q.Get("media_type"); v != "" {
		t := media.Type(v)
		if !t.Valid() {
			return lq, fmt.Errorf("invalid media_type: %s", v)
		}
		lq.filters.MediaType = &t
	}

	if v := q.Get("status"); v != "" {
		s := media.Status(v)
		if !s.Valid() {
			return lq, fmt.Errorf("invalid status: %s", v)
		}
		lq.filters.Status = &s
	}

	if v := q.Get("is_favorite"); v != "" {
		fav, err := strconv.ParseBool(v)
		if err != nil {
			return lq, fmt.Errorf("invalid is_favorite: %s", v)
		}
		lq.filters.IsFavorite = &fav
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 || page > maxPage {
			return lq, fmt.Errorf("page must be an integer between 1 and %d", maxPage)
		}
		lq.page = page
	}

	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > 100 {
			return lq, errors.New("size must be an integer between 1 and 100")
		}
		lq.size = size
	}

	return lq, nil
}

// GetMedia returns one media record
// @Summary Get media
// @Tags media
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} media.Media
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Media not found"
// @Security BearerAuth
// @Router /api/v1/media/{id} [get]
func (h *MediaHandlers) GetMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.ownedMedia(w, r)
		if !ok {
			return
		}

		response.WriteJSON(w, http.StatusOK, m)
	}
}

// UpdateMedia patches description, user_tags and is_favorite
// @Summary Update media metadata
// @Description Only the fields present in the body change. null clears description or user_tags.
// @Tags media
// @Accept json
// @Produce json
// @Param id path string true "Media ID"
// @Param request body media.Patch true "Fields to change"
// @Success 200 {object} media.Media
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Media not found"
// @Security BearerAuth
// @Router /api/v1/media/{id} [patch]
func (h *MediaHandlers) UpdateMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.ownedMedia(w, r)
		if !ok {
			return
		}

		var patch media.Patch
		if !request.Decode(w, r, &patch) {
			return
		}

		updated, err := h.service.Update(r.Context(), m, patch)
		if err != nil {
			writeMediaError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteMedia deletes a media record and its stored file
// @Summary Delete media
// @Tags media
// @Param id path string true "Media ID"
// @Success 204
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Media not found"
// @Security BearerAuth
// @Router /api/v1/media/{id} [delete]
func (h *MediaHandlers) DeleteMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.ownedMedia(w, r)
		if !ok {
			return
		}

		if err := h.service.Delete(r.Context(), m); err != nil {
			writeMediaError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
