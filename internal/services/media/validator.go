package media

import (
	"slices"

	"github.com/princekumarofficial/atlasnap-service/internal/config"
	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
)

// Validator checks declared uploads against the configured allow-lists and
// size ceiling. It holds no mutable state.
type Validator struct {
	imageTypes []string
	videoTypes []string
	maxMB      int64
}

func NewValidator(cfg config.Media) *Validator {
	return &Validator{
		imageTypes: slices.Clone(cfg.AllowedImageTypes),
		videoTypes: slices.Clone(cfg.AllowedVideoTypes),
		maxMB:      cfg.MaxUploadSizeMB,
	}
}

// MaxBytes is the largest accepted file size.
func (v *Validator) MaxBytes() int64 {
	return v.maxMB * 1024 * 1024
}

// ClassifyAndValidate returns the media type for contentType, or a
// *media.ValidationError when the type is not allowed or the file is too big.
// Size is checked first so an oversized file is rejected whatever its type.
func (v *Validator) ClassifyAndValidate(contentType string, fileSize int64) (media.Type, error) {
	if fileSize > v.MaxBytes() {
		return "", &media.ValidationError{Err: media.ErrFileTooLarge, ContentType: contentType, MaxMB: v.maxMB}
	}

	switch {
	case slices.Contains(v.imageTypes, contentType):
		return media.TypeImage, nil
	case slices.Contains(v.videoTypes, contentType):
		return media.TypeVideo, nil
	}

	return "", &media.ValidationError{Err: media.ErrUnsupportedMediaType, ContentType: contentType, MaxMB: v.maxMB}
}
