package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

// PostCommentRepository is the relational side of the comment media
// lifecycle. Implemented by repositories.PostCommentRepository.
type PostCommentRepository interface {
	CreateWithAttachments(ctx context.Context, comment *models.PostComment, attachments []models.PostCommentAttachment) error
	MediaState(ctx context.Context, id uuid.UUID) ([]models.PostCommentAttachment, error)
	UpdateWithAttachments(ctx context.Context, id uuid.UUID, upd models.PostCommentUpdate, attachments []models.PostCommentAttachment) (*models.PostComment, error)
	DeleteReturningMedia(ctx context.Context, id uuid.UUID) ([]models.PostCommentAttachment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]models.PostComment, error)
}

type CreateCommentRequest struct {
	PostID          uuid.UUID
	AuthorID        uuid.UUID
	ParentCommentID *uuid.UUID
	Content         string
	Attachments     []IncomingFile
	AttachmentNames []string
}

type UpdateCommentRequest struct {
	Content            *string
	Attachments        []IncomingFile
	ReplaceAttachments bool
	AttachmentNames    []string
}

// PostCommentService mirrors PostService for comments: same
// commit-then-dispatch ordering, no singular media slot.
type PostCommentService struct {
	repo      PostCommentRepository
	allocator *MediaAllocator
	media     *MediaExecutor
	store     MediaStore
}

func NewPostCommentService(repo PostCommentRepository, allocator *MediaAllocator, media *MediaExecutor, store MediaStore) *PostCommentService {
	return &PostCommentService{
		repo:      repo,
		allocator: allocator,
		media:     media,
		store:     store,
	}
}

// CreateComment commits the comment and attachment rows, then dispatches the
// uploads. A missing post or parent comment fails the insert before any
// media I/O is attempted.
func (s *PostCommentService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*models.PostComment, error) {
	if err := validateNames(req.AttachmentNames, len(req.Attachments)); err != nil {
		return nil, err
	}

	files := make([]IncomingFile, len(req.Attachments))
	for i, f := range req.Attachments {
		f.Field = FieldCommentAttachments
		files[i] = f
	}

	descriptors, err := s.allocator.Allocate(files)
	if err != nil {
		return nil, err
	}

	attachments := make([]models.PostCommentAttachment, len(descriptors))
	for i, d := range descriptors {
		attachments[i] = models.PostCommentAttachment{
			File:         d.ObjectKey,
			Filename:     nameAt(req.AttachmentNames, i),
			ResourceType: d.MediaType,
		}
	}

	comment := &models.PostComment{
		PostID:          req.PostID,
		AuthorID:        req.AuthorID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
	}

	if err := s.repo.CreateWithAttachments(ctx, comment, attachments); err != nil {
		return nil, err
	}

	s.media.Dispatch(buildUploadPlan(descriptors, files), nil)

	s.decorateComment(comment)
	return comment, nil
}

// UpdateComment replaces the attachment set wholesale whenever the field is
// present, reclaiming every previously stored object after commit.
func (s *PostCommentService) UpdateComment(ctx context.Context, id uuid.UUID, req *UpdateCommentRequest) (*models.PostComment, error) {
	if err := validateNames(req.AttachmentNames, len(req.Attachments)); err != nil {
		return nil, err
	}
	replaceAttachments := req.ReplaceAttachments || len(req.Attachments) > 0

	prevAttachments, err := s.repo.MediaState(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	files := make([]IncomingFile, len(req.Attachments))
	for i, f := range req.Attachments {
		f.Field = FieldCommentAttachments
		files[i] = f
	}

	descriptors, err := s.allocator.Allocate(files)
	if err != nil {
		return nil, err
	}

	attachments := make([]models.PostCommentAttachment, len(descriptors))
	for i, d := range descriptors {
		attachments[i] = models.PostCommentAttachment{
			File:         d.ObjectKey,
			Filename:     nameAt(req.AttachmentNames, i),
			ResourceType: d.MediaType,
		}
	}

	var deletions DeletionPlan
	if replaceAttachments {
		for _, a := range prevAttachments {
			deletions = append(deletions, DeletionItem{ObjectKey: a.File, MediaType: a.ResourceType})
		}
	}

	upd := models.PostCommentUpdate{
		Content:            req.Content,
		ReplaceAttachments: replaceAttachments,
	}

	comment, err := s.repo.UpdateWithAttachments(ctx, id, upd, attachments)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	s.media.Dispatch(buildUploadPlan(descriptors, files), deletions)

	s.decorateComment(comment)
	return comment, nil
}

// RemoveComment deletes the comment row and then reclaims its attachment
// objects. Removing an already removed comment dispatches nothing.
func (s *PostCommentService) RemoveComment(ctx context.Context, id uuid.UUID) (*models.PostComment, error) {
	attachments, err := s.repo.DeleteReturningMedia(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	deletions := make(DeletionPlan, 0, len(attachments))
	for _, a := range attachments {
		deletions = append(deletions, DeletionItem{ObjectKey: a.File, MediaType: a.ResourceType})
	}
	s.media.Dispatch(nil, deletions)

	return &models.PostComment{ID: id, Attachments: attachments}, nil
}

// ListComments returns all comments on a post with attachments and URLs.
func (s *PostCommentService) ListComments(ctx context.Context, postID uuid.UUID) ([]models.PostComment, error) {
	comments, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		s.decorateComment(&comments[i])
	}
	return comments, nil
}

func (s *PostCommentService) decorateComment(comment *models.PostComment) {
	for i := range comment.Attachments {
		a := &comment.Attachments[i]
		a.FileURL = s.store.PublicURL(a.File, a.ResourceType)
	}
}
