package services

import "errors"

// Configuration errors: caller contract violations detected before any
// relational write or media I/O.
var (
	ErrFolderNotMapped        = errors.New("no storage folder mapped for upload field")
	ErrAttachmentNameMismatch = errors.New("attachment filename count does not match attachment file count")
	ErrCoverNotImage          = errors.New("cover image must have an image content type")
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)
