package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

// Logical upload fields accepted by the HTTP layer. Every field must have a
// folder mapping in the media configuration.
const (
	FieldPostImage          = "image"
	FieldPostAttachments    = "attachments"
	FieldCommentAttachments = "comment_attachments"
)

// IncomingFile is one binary part of a multipart request, tagged with the
// logical field it was submitted under. Slices of IncomingFile preserve
// submission order end to end.
type IncomingFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// MediaAllocator assigns remote object keys to incoming binaries without any
// network or storage side effects. Keys are uuid-derived, never built from
// user-supplied filenames.
type MediaAllocator struct {
	folders map[string]string
}

func NewMediaAllocator(folders map[string]string) *MediaAllocator {
	return &MediaAllocator{folders: folders}
}

// Allocate produces one descriptor per file, order preserved:
// len(result) == len(files) and result[i] describes files[i].
// A file whose field has no folder mapping fails the whole call with
// ErrFolderNotMapped; nothing external has been touched at that point.
func (a *MediaAllocator) Allocate(files []IncomingFile) ([]models.ObjectDescriptor, error) {
	descriptors := make([]models.ObjectDescriptor, 0, len(files))
	for _, f := range files {
		folder, ok := a.folders[f.Field]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFolderNotMapped, f.Field)
		}

		key := uuid.NewString()
		if ext := extensionForContentType(f.ContentType); ext != "" {
			key += "." + ext
		}

		descriptors = append(descriptors, models.ObjectDescriptor{
			LogicalField: f.Field,
			ObjectKey:    folder + "/" + key,
			MediaType:    ClassifyMediaType(f.ContentType),
			TargetFolder: folder,
		})
	}
	return descriptors, nil
}

// ClassifyMediaType maps a MIME content type to the coarse storage
// classification.
func ClassifyMediaType(contentType string) models.MediaType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.MediaTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return models.MediaTypeVideo
	default:
		return models.MediaTypeRaw
	}
}

// extensionForContentType returns the canonical extension for well-known
// content types, or "" when none applies. The extension is derived from the
// declared type only, never from the uploaded filename.
func extensionForContentType(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	case "video/mp4":
		return "mp4"
	case "video/webm":
		return "webm"
	case "video/quicktime":
		return "mov"
	case "application/pdf":
		return "pdf"
	case "text/plain":
		return "txt"
	case "application/zip":
		return "zip"
	default:
		return ""
	}
}
