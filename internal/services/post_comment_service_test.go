package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

func TestCreateCommentWithAttachments(t *testing.T) {
	service, _, store, executor := newTestCommentService()

	comment, err := service.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:   uuid.New(),
		AuthorID: uuid.New(),
		Content:  "Sharing a photo from the site.",
		Attachments: []IncomingFile{
			{Filename: "site.jpg", ContentType: "image/jpeg", Data: []byte("photo")},
		},
		AttachmentNames: []string{"site.jpg"},
	})
	require.NoError(t, err)
	executor.Wait()

	require.Len(t, comment.Attachments, 1)
	a := comment.Attachments[0]
	require.NotNil(t, a.Filename)
	assert.Equal(t, "site.jpg", *a.Filename)
	assert.Equal(t, models.MediaTypeImage, a.ResourceType)
	assert.Contains(t, a.File, "comments/attachments/")
	assert.NotEmpty(t, a.FileURL)

	data, ok := store.object(a.File)
	require.True(t, ok)
	assert.Equal(t, []byte("photo"), data)
}

func TestCreateCommentRelationalFailureUploadsNothing(t *testing.T) {
	service, repo, store, executor := newTestCommentService()
	repo.failCreate = errors.New("foreign key violation")

	_, err := service.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:   uuid.New(),
		AuthorID: uuid.New(),
		Content:  "Orphan",
		Attachments: []IncomingFile{
			{ContentType: "text/plain", Data: []byte("never stored")},
		},
	})
	require.Error(t, err)
	executor.Wait()

	assert.Zero(t, store.putCount())
}

func TestUpdateCommentReplacesAttachmentsWholesale(t *testing.T) {
	service, _, store, executor := newTestCommentService()

	created, err := service.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:   uuid.New(),
		AuthorID: uuid.New(),
		Content:  "Before",
		Attachments: []IncomingFile{
			{ContentType: "text/plain", Data: []byte("old-1")},
			{ContentType: "text/plain", Data: []byte("old-2")},
		},
	})
	require.NoError(t, err)
	executor.Wait()

	oldKeys := []string{created.Attachments[0].File, created.Attachments[1].File}

	updated, err := service.UpdateComment(context.Background(), created.ID, &UpdateCommentRequest{
		Content: strPtr("After"),
		Attachments: []IncomingFile{
			{ContentType: "image/png", Data: []byte("new")},
		},
	})
	require.NoError(t, err)
	executor.Wait()

	assert.Equal(t, "After", updated.Content)
	require.Len(t, updated.Attachments, 1)
	assert.ElementsMatch(t, oldKeys, store.deletedKeys())
	_, ok := store.object(updated.Attachments[0].File)
	assert.True(t, ok)
}

func TestUpdateCommentClearAttachments(t *testing.T) {
	service, repo, store, executor := newTestCommentService()

	created, err := service.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:   uuid.New(),
		AuthorID: uuid.New(),
		Content:  "Has attachments",
		Attachments: []IncomingFile{
			{ContentType: "text/plain", Data: []byte("a")},
		},
	})
	require.NoError(t, err)
	executor.Wait()

	updated, err := service.UpdateComment(context.Background(), created.ID, &UpdateCommentRequest{
		ReplaceAttachments: true,
	})
	require.NoError(t, err)
	executor.Wait()

	assert.Empty(t, updated.Attachments)
	assert.Len(t, store.deletedKeys(), 1)

	remaining, err := repo.MediaState(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestUpdateCommentContentOnlyKeepsAttachments(t *testing.T) {
	service, _, store, executor := newTestCommentService()

	created, err := service.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:   uuid.New(),
		AuthorID: uuid.New(),
		Content:  "Original",
		Attachments: []IncomingFile{
			{ContentType: "text/plain", Data: []byte("keep")},
		},
	})
	require.NoError(t, err)
	executor.Wait()

	updated, err := service.UpdateComment(context.Background(), created.ID, &UpdateCommentRequest{
		Content: strPtr("Edited"),
	})
	require.NoError(t, err)
	executor.Wait()

	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, created.Attachments[0].File, updated.Attachments[0].File)
	assert.Empty(t, store.deletedKeys())
}

func TestUpdateCommentNotFound(t *testing.T) {
	service, _, store, executor := newTestCommentService()

	_, err := service.UpdateComment(context.Background(), uuid.New(), &UpdateCommentRequest{
		Content: strPtr("ghost"),
	})
	require.ErrorIs(t, err, ErrCommentNotFound)
	executor.Wait()
	assert.Zero(t, store.putCount())
}

func TestRemoveCommentReclaimsAttachments(t *testing.T) {
	service, _, store, executor := newTestCommentService()

	created, err := service.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:   uuid.New(),
		AuthorID: uuid.New(),
		Content:  "Remove me",
		Attachments: []IncomingFile{
			{ContentType: "text/plain", Data: []byte("a")},
			{ContentType: "image/png", Data: []byte("b")},
		},
	})
	require.NoError(t, err)
	executor.Wait()

	expected := []string{created.Attachments[0].File, created.Attachments[1].File}

	_, err = service.RemoveComment(context.Background(), created.ID)
	require.NoError(t, err)
	executor.Wait()

	assert.ElementsMatch(t, expected, store.deletedKeys())
}

func TestRemoveCommentTwice(t *testing.T) {
	service, _, store, executor := newTestCommentService()

	created, err := service.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:   uuid.New(),
		AuthorID: uuid.New(),
		Content:  "Double delete",
	})
	require.NoError(t, err)

	_, err = service.RemoveComment(context.Background(), created.ID)
	require.NoError(t, err)
	executor.Wait()

	_, err = service.RemoveComment(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrCommentNotFound)
	executor.Wait()
	assert.Empty(t, store.deletedKeys())
}

func TestListCommentsDecoratesURLs(t *testing.T) {
	service, _, _, executor := newTestCommentService()
	postID := uuid.New()

	_, err := service.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:   postID,
		AuthorID: uuid.New(),
		Content:  "First",
		Attachments: []IncomingFile{
			{ContentType: "image/png", Data: []byte("img")},
		},
	})
	require.NoError(t, err)
	executor.Wait()

	comments, err := service.ListComments(context.Background(), postID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Attachments, 1)
	assert.NotEmpty(t, comments[0].Attachments[0].FileURL)
}
