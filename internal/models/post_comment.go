package models

import (
	"time"

	"github.com/google/uuid"
)

// PostComment represents a comment under a post, optionally replying to
// another comment.
type PostComment struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	PostID          uuid.UUID  `json:"post_id" db:"post_id"`
	AuthorID        uuid.UUID  `json:"author_id" db:"author_id"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id,omitempty" db:"parent_comment_id"`
	Content         string     `json:"content" db:"content"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`

	// Computed field (not stored in the database)
	Attachments []PostCommentAttachment `json:"attachments,omitempty"`
}

// PostCommentUpdate carries the mutable fields of a comment update.
// ReplaceAttachments signals wholesale replacement of the attachment set.
type PostCommentUpdate struct {
	Content            *string
	ReplaceAttachments bool
}

// PostCommentAttachment is one binary attached to a comment.
type PostCommentAttachment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CommentID    uuid.UUID `json:"comment_id" db:"comment_id"`
	File         string    `json:"file" db:"file"`
	Filename     *string   `json:"filename,omitempty" db:"filename"`
	ResourceType MediaType `json:"resource_type" db:"resource_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// Computed field, not stored in the database
	FileURL string `json:"file_url,omitempty"`
}
