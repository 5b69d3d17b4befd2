package models

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a fundraising post. Image holds the remote object key of
// the cover image, or nil when the post has none.
type Post struct {
	ID              uuid.UUID `json:"id" db:"id"`
	AuthorID        uuid.UUID `json:"author_id" db:"author_id"`
	Title           string    `json:"title" db:"title"`
	Content         string    `json:"content" db:"content"`
	FundsToBeRaised float64   `json:"funds_to_be_raised" db:"funds_to_be_raised"`
	Image           *string   `json:"image,omitempty" db:"image"`
	IsDraft         bool      `json:"is_draft" db:"is_draft"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	// Computed fields (not stored in the database)
	ImageURL    string           `json:"image_url,omitempty"`
	Attachments []PostAttachment `json:"attachments,omitempty"`
}

// PostUpdate carries the mutable fields of a post update. Nil scalar fields
// are left untouched. SetImage distinguishes "replace or clear the cover
// image" (Image holds the new key or nil) from "leave the image alone".
// ReplaceAttachments signals a wholesale replacement of the attachment set,
// even when the new set is empty.
type PostUpdate struct {
	Title              *string
	Content            *string
	FundsToBeRaised    *float64
	IsDraft            *bool
	SetImage           bool
	Image              *string
	ReplaceAttachments bool
}

// PostAttachment is one binary attached to a post. File is the remote object
// key; it is written in the same transaction that creates the post, before
// the bytes are guaranteed to exist remotely.
type PostAttachment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PostID       uuid.UUID `json:"post_id" db:"post_id"`
	File         string    `json:"file" db:"file"`
	Filename     *string   `json:"filename,omitempty" db:"filename"`
	ResourceType MediaType `json:"resource_type" db:"resource_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// Computed field, not stored in the database
	FileURL string `json:"file_url,omitempty"`
}
