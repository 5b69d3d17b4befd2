package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

// PostRepository is the relational side of the post media lifecycle.
// Implemented by repositories.PostRepository; multi-row writes run inside a
// single transaction so a failed write leaves no partially referenced keys.
type PostRepository interface {
	CreateWithAttachments(ctx context.Context, post *models.Post, attachments []models.PostAttachment) error
	MediaState(ctx context.Context, id uuid.UUID) (*string, []models.PostAttachment, error)
	UpdateWithAttachments(ctx context.Context, id uuid.UUID, upd models.PostUpdate, attachments []models.PostAttachment) (*models.Post, error)
	DeleteReturningMedia(ctx context.Context, id uuid.UUID) (*string, []models.PostAttachment, error)
	GetWithAttachments(ctx context.Context, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]models.Post, error)
}

type CreatePostRequest struct {
	AuthorID        uuid.UUID
	Title           string
	Content         string
	FundsToBeRaised float64
	IsDraft         bool
	Image           *IncomingFile
	Attachments     []IncomingFile
	// AttachmentNames are zipped positionally with Attachments. Nil means no
	// display names were supplied; otherwise the lengths must match.
	AttachmentNames []string
}

type UpdatePostRequest struct {
	Title           *string
	Content         *string
	FundsToBeRaised *float64
	IsDraft         *bool
	Image           *IncomingFile
	// RemoveImage clears the cover image without supplying a replacement.
	RemoveImage bool
	Attachments []IncomingFile
	// ReplaceAttachments marks the attachments field as present in the
	// request. The previous set is always replaced wholesale, even when
	// Attachments is empty.
	ReplaceAttachments bool
	AttachmentNames    []string
}

// PostService coordinates the post rows in Postgres with their binaries in
// the remote media store. The relational transaction is the ordering
// authority: attachment rows are committed first, holding keys allocated
// up front, and only then are uploads and stale-object deletions dispatched.
type PostService struct {
	repo      PostRepository
	allocator *MediaAllocator
	media     *MediaExecutor
	store     MediaStore
}

func NewPostService(repo PostRepository, allocator *MediaAllocator, media *MediaExecutor, store MediaStore) *PostService {
	return &PostService{
		repo:      repo,
		allocator: allocator,
		media:     media,
		store:     store,
	}
}

// CreatePost validates the request, allocates object keys for every incoming
// binary, commits the post and attachment rows referencing those keys, and
// only then dispatches the uploads. A relational failure therefore never
// leaves bytes in the remote store.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*models.Post, error) {
	if err := validateNames(req.AttachmentNames, len(req.Attachments)); err != nil {
		return nil, err
	}
	if err := validateCover(req.Image); err != nil {
		return nil, err
	}

	files := make([]IncomingFile, 0, len(req.Attachments)+1)
	if req.Image != nil {
		img := *req.Image
		img.Field = FieldPostImage
		files = append(files, img)
	}
	for _, f := range req.Attachments {
		f.Field = FieldPostAttachments
		files = append(files, f)
	}

	descriptors, err := s.allocator.Allocate(files)
	if err != nil {
		return nil, err
	}

	var imageKey *string
	attachmentDescs := descriptors
	if req.Image != nil {
		imageKey = &descriptors[0].ObjectKey
		attachmentDescs = descriptors[1:]
	}

	attachments := make([]models.PostAttachment, len(attachmentDescs))
	for i, d := range attachmentDescs {
		attachments[i] = models.PostAttachment{
			File:         d.ObjectKey,
			Filename:     nameAt(req.AttachmentNames, i),
			ResourceType: d.MediaType,
		}
	}

	post := &models.Post{
		AuthorID:        req.AuthorID,
		Title:           req.Title,
		Content:         req.Content,
		FundsToBeRaised: req.FundsToBeRaised,
		Image:           imageKey,
		IsDraft:         req.IsDraft,
	}

	if err := s.repo.CreateWithAttachments(ctx, post, attachments); err != nil {
		return nil, err
	}

	s.media.Dispatch(buildUploadPlan(descriptors, files), nil)

	s.decoratePost(post)
	return post, nil
}

// UpdatePost reads the committed media state, allocates keys for any new
// binaries, commits the row changes, and then dispatches uploads of the new
// objects plus deletions of everything the update made unreachable.
// Attachments are replaced wholesale whenever the field is present; an empty
// set is a valid "remove all attachments".
func (s *PostService) UpdatePost(ctx context.Context, id uuid.UUID, req *UpdatePostRequest) (*models.Post, error) {
	if err := validateNames(req.AttachmentNames, len(req.Attachments)); err != nil {
		return nil, err
	}
	if err := validateCover(req.Image); err != nil {
		return nil, err
	}
	replaceAttachments := req.ReplaceAttachments || len(req.Attachments) > 0

	prevImage, prevAttachments, err := s.repo.MediaState(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	files := make([]IncomingFile, 0, len(req.Attachments)+1)
	if req.Image != nil {
		img := *req.Image
		img.Field = FieldPostImage
		files = append(files, img)
	}
	for _, f := range req.Attachments {
		f.Field = FieldPostAttachments
		files = append(files, f)
	}

	descriptors, err := s.allocator.Allocate(files)
	if err != nil {
		return nil, err
	}

	var imageKey *string
	attachmentDescs := descriptors
	if req.Image != nil {
		imageKey = &descriptors[0].ObjectKey
		attachmentDescs = descriptors[1:]
	}

	attachments := make([]models.PostAttachment, len(attachmentDescs))
	for i, d := range attachmentDescs {
		attachments[i] = models.PostAttachment{
			File:         d.ObjectKey,
			Filename:     nameAt(req.AttachmentNames, i),
			ResourceType: d.MediaType,
		}
	}

	var deletions DeletionPlan
	if (req.Image != nil || req.RemoveImage) && prevImage != nil {
		deletions = append(deletions, DeletionItem{ObjectKey: *prevImage, MediaType: models.MediaTypeImage})
	}
	if replaceAttachments {
		for _, a := range prevAttachments {
			deletions = append(deletions, DeletionItem{ObjectKey: a.File, MediaType: a.ResourceType})
		}
	}

	upd := models.PostUpdate{
		Title:              req.Title,
		Content:            req.Content,
		FundsToBeRaised:    req.FundsToBeRaised,
		IsDraft:            req.IsDraft,
		SetImage:           req.Image != nil || req.RemoveImage,
		Image:              imageKey,
		ReplaceAttachments: replaceAttachments,
	}

	post, err := s.repo.UpdateWithAttachments(ctx, id, upd, attachments)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	s.media.Dispatch(buildUploadPlan(descriptors, files), deletions)

	s.decoratePost(post)
	return post, nil
}

// RemovePost deletes the post row and then reclaims its cover image and all
// attachment objects. A second removal of the same id finds no row and
// dispatches nothing.
func (s *PostService) RemovePost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	image, attachments, err := s.repo.DeleteReturningMedia(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var deletions DeletionPlan
	if image != nil {
		deletions = append(deletions, DeletionItem{ObjectKey: *image, MediaType: models.MediaTypeImage})
	}
	for _, a := range attachments {
		deletions = append(deletions, DeletionItem{ObjectKey: a.File, MediaType: a.ResourceType})
	}
	s.media.Dispatch(nil, deletions)

	return &models.Post{ID: id, Attachments: attachments}, nil
}

// GetPost returns a post with its attachments and public media URLs.
func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.repo.GetWithAttachments(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.decoratePost(post)
	return post, nil
}

// ListPosts returns published posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	posts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		s.decoratePost(&posts[i])
	}
	return posts, nil
}

func (s *PostService) decoratePost(post *models.Post) {
	if post.Image != nil {
		post.ImageURL = s.store.PublicURL(*post.Image, models.MediaTypeImage)
	}
	for i := range post.Attachments {
		a := &post.Attachments[i]
		a.FileURL = s.store.PublicURL(a.File, a.ResourceType)
	}
}

// validateCover rejects non-image binaries submitted for the cover slot. The
// slot's stored key carries no media type, so reclamation and URL building
// assume image; anything else would be uploaded under a path the delete and
// the public URL never address.
func validateCover(image *IncomingFile) error {
	if image != nil && ClassifyMediaType(image.ContentType) != models.MediaTypeImage {
		return fmt.Errorf("%w: got %q", ErrCoverNotImage, image.ContentType)
	}
	return nil
}

// validateNames enforces the positional pairing contract between attachment
// files and their display names.
func validateNames(names []string, fileCount int) error {
	if names != nil && len(names) != fileCount {
		return ErrAttachmentNameMismatch
	}
	return nil
}

// nameAt returns the i-th display name, or nil when none was supplied.
func nameAt(names []string, i int) *string {
	if names == nil || i >= len(names) || names[i] == "" {
		return nil
	}
	return &names[i]
}

// buildUploadPlan zips descriptors with the binaries they were allocated
// for; both slices are index-aligned by construction.
func buildUploadPlan(descriptors []models.ObjectDescriptor, files []IncomingFile) UploadPlan {
	if len(descriptors) == 0 {
		return nil
	}
	plan := make(UploadPlan, len(descriptors))
	for i, d := range descriptors {
		plan[i] = UploadItem{
			Descriptor:  d,
			ContentType: files[i].ContentType,
			Data:        files[i].Data,
		}
	}
	return plan
}
