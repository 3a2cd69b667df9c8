package media

// UploadRequest represents a single file the client wants to upload
type UploadRequest struct {
	Filename    string `json:"filename" validate:"required,min=1,max=255"`
	ContentType string `json:"content_type" validate:"required"`
	FileSize    int64  `json:"file_size" validate:"required,gt=0"`
}

// BatchUploadRequest represents a request for presigned upload URLs
type BatchUploadRequest struct {
	Files []UploadRequest `json:"files" validate:"required,min=1,dive"`
}

// UploadInfo is one presigned upload target
type UploadInfo struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	Bucket    string `json:"bucket"`
	ExpiresIn int    `json:"expires_in"`
}

type BatchUploadResponse struct {
	Uploads []UploadInfo `json:"uploads"`
}

// ConfirmUploadRequest represents a file the client finished uploading.
// Items are checked one by one during confirm, so a bad item only counts
// as a failure instead of rejecting the batch.
type ConfirmUploadRequest struct {
	Key              string `json:"key"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	FileSize         int64  `json:"file_size"`
}

type BatchConfirmRequest struct {
	Files []ConfirmUploadRequest `json:"files" validate:"required,min=1,dive"`
}

// ConfirmResult reports a best-effort batch confirmation
type ConfirmResult struct {
	Created  int      `json:"created"`
	Failed   int      `json:"failed"`
	MediaIDs []string `json:"media_ids"`
}

type DownloadURL struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// Page is one page of a filtered listing
type Page struct {
	Items []Media `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
	Pages int     `json:"pages"`
}
