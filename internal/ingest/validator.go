package ingest

import (
	"context"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

// Validator enforces the upload size limit and the allowed MIME types as a
// pre-upload hook. A zero MaxSize or an empty MimeTypes list disables the
// respective check.
type Validator struct {
	MaxSize   int64
	MimeTypes []string
}

func (v Validator) Hook() PreUploadHook {
	return func(ctx context.Context, event *PreUploadEvent) error {
		return v.Validate(event.Upload)
	}
}

func (v Validator) Validate(upload *Upload) error {
	if v.MaxSize > 0 && upload.Size > v.MaxSize {
		return NewValidationError("File size of '%s' (%s) exceeds the maximum allowed size (%s)",
			upload.Filename, humanize.IBytes(uint64(upload.Size)), humanize.IBytes(uint64(v.MaxSize)))
	}

	if len(v.MimeTypes) > 0 {
		mime := upload.MimeType
		if mime == "" || !slices.Contains(v.MimeTypes, mime) {
			if mime == "" {
				mime = "unknown"
			}
			return NewValidationError("MIME type of '%s' (%s) is not allowed. Allowed types: %s",
				upload.Filename, mime, strings.Join(v.MimeTypes, ", "))
		}
	}

	return nil
}
