package media

import (
	"net/http"

	"github.com/princekumarofficial/atlasnap-service/internal/http/middleware"
)

// Protect wraps a route before it is mounted. action names the rate limit
// bucket for the route and is empty for routes without one.
type Protect func(action string, next http.Handler) http.Handler

// RegisterRoutes mounts the media routes on mux. A nil protect mounts them bare.
func RegisterRoutes(mux *http.ServeMux, h *MediaHandlers, protect Protect) {
	if protect == nil {
		protect = func(_ string, next http.Handler) http.Handler { return next }
	}

	mux.Handle("POST /api/v1/media/upload/urls", protect(middleware.ActionUploadURLs, h.GenerateUploadURLs()))
	mux.Handle("POST /api/v1/media/upload/confirm", protect(middleware.ActionUploadConfirm, h.ConfirmUploads()))
	mux.Handle("GET /api/v1/media/{id}/download-url", protect("", h.GetDownloadURL()))
	mux.Handle("GET /api/v1/media", protect("", h.ListMedia()))
	mux.Handle("GET /api/v1/media/{id}", protect("", h.GetMedia()))
	mux.Handle("PATCH /api/v1/media/{id}", protect("", h.UpdateMedia()))
	mux.Handle("DELETE /api/v1/media/{id}", protect("", h.DeleteMedia()))
}
