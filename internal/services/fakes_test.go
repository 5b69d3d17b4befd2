package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

// fakeMediaStore records store traffic and keeps uploaded bytes in memory.
type fakeMediaStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
	deletes []string

	putErr    error
	deleteErr error
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{objects: make(map[string][]byte)}
}

func (s *fakeMediaStore) Put(_ context.Context, key string, _ models.MediaType, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, key)
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = data
	return nil
}

func (s *fakeMediaStore) Delete(_ context.Context, key string, _ models.MediaType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	// Deleting a missing key is not an error
	delete(s.objects, key)
	return nil
}

func (s *fakeMediaStore) PublicURL(key string, mediaType models.MediaType) string {
	return fmt.Sprintf("https://media.test/%s/upload/%s", mediaType, key)
}

func (s *fakeMediaStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

func (s *fakeMediaStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

func (s *fakeMediaStore) object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// fakePostRepo is an in-memory PostRepository with the same transactional
// semantics: a forced failure leaves no rows behind.
type fakePostRepo struct {
	mu          sync.Mutex
	posts       map[uuid.UUID]*models.Post
	attachments map[uuid.UUID][]models.PostAttachment

	failCreate error
	failUpdate error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:       make(map[uuid.UUID]*models.Post),
		attachments: make(map[uuid.UUID][]models.PostAttachment),
	}
}

func (r *fakePostRepo) CreateWithAttachments(_ context.Context, post *models.Post, attachments []models.PostAttachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}

	post.ID = uuid.New()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	for i := range attachments {
		attachments[i].ID = uuid.New()
		attachments[i].PostID = post.ID
		attachments[i].CreatedAt = post.CreatedAt
	}
	post.Attachments = attachments

	stored := *post
	r.posts[post.ID] = &stored
	r.attachments[post.ID] = append([]models.PostAttachment(nil), attachments...)
	return nil
}

func (r *fakePostRepo) MediaState(_ context.Context, id uuid.UUID) (*string, []models.PostAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	return post.Image, append([]models.PostAttachment(nil), r.attachments[id]...), nil
}

func (r *fakePostRepo) UpdateWithAttachments(_ context.Context, id uuid.UUID, upd models.PostUpdate, attachments []models.PostAttachment) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return nil, r.failUpdate
	}
	post, ok := r.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	if upd.Title != nil {
		post.Title = *upd.Title
	}
	if upd.Content != nil {
		post.Content = *upd.Content
	}
	if upd.FundsToBeRaised != nil {
		post.FundsToBeRaised = *upd.FundsToBeRaised
	}
	if upd.IsDraft != nil {
		post.IsDraft = *upd.IsDraft
	}
	if upd.SetImage {
		post.Image = upd.Image
	}
	post.UpdatedAt = time.Now()

	if upd.ReplaceAttachments {
		for i := range attachments {
			attachments[i].ID = uuid.New()
			attachments[i].PostID = id
			attachments[i].CreatedAt = post.UpdatedAt
		}
		r.attachments[id] = append([]models.PostAttachment(nil), attachments...)
	}

	result := *post
	result.Attachments = append([]models.PostAttachment(nil), r.attachments[id]...)
	return &result, nil
}

func (r *fakePostRepo) DeleteReturningMedia(_ context.Context, id uuid.UUID) (*string, []models.PostAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	attachments := r.attachments[id]
	delete(r.posts, id)
	delete(r.attachments, id)
	return post.Image, attachments, nil
}

func (r *fakePostRepo) GetWithAttachments(_ context.Context, id uuid.UUID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := *post
	result.Attachments = append([]models.PostAttachment(nil), r.attachments[id]...)
	return &result, nil
}

func (r *fakePostRepo) List(_ context.Context, limit, offset int) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []models.Post
	for _, post := range r.posts {
		if !post.IsDraft {
			posts = append(posts, *post)
		}
	}
	if offset >= len(posts) {
		return nil, nil
	}
	posts = posts[offset:]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// fakeCommentRepo is the comment counterpart.
type fakeCommentRepo struct {
	mu          sync.Mutex
	comments    map[uuid.UUID]*models.PostComment
	attachments map[uuid.UUID][]models.PostCommentAttachment

	failCreate error
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{
		comments:    make(map[uuid.UUID]*models.PostComment),
		attachments: make(map[uuid.UUID][]models.PostCommentAttachment),
	}
}

func (r *fakeCommentRepo) CreateWithAttachments(_ context.Context, comment *models.PostComment, attachments []models.PostCommentAttachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}

	comment.ID = uuid.New()
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	for i := range attachments {
		attachments[i].ID = uuid.New()
		attachments[i].CommentID = comment.ID
		attachments[i].CreatedAt = comment.CreatedAt
	}
	comment.Attachments = attachments

	stored := *comment
	r.comments[comment.ID] = &stored
	r.attachments[comment.ID] = append([]models.PostCommentAttachment(nil), attachments...)
	return nil
}

func (r *fakeCommentRepo) MediaState(_ context.Context, id uuid.UUID) ([]models.PostCommentAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return nil, pgx.ErrNoRows
	}
	return append([]models.PostCommentAttachment(nil), r.attachments[id]...), nil
}

func (r *fakeCommentRepo) UpdateWithAttachments(_ context.Context, id uuid.UUID, upd models.PostCommentUpdate, attachments []models.PostCommentAttachment) (*models.PostComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	if upd.Content != nil {
		comment.Content = *upd.Content
	}
	comment.UpdatedAt = time.Now()

	if upd.ReplaceAttachments {
		for i := range attachments {
			attachments[i].ID = uuid.New()
			attachments[i].CommentID = id
			attachments[i].CreatedAt = comment.UpdatedAt
		}
		r.attachments[id] = append([]models.PostCommentAttachment(nil), attachments...)
	}

	result := *comment
	result.Attachments = append([]models.PostCommentAttachment(nil), r.attachments[id]...)
	return &result, nil
}

func (r *fakeCommentRepo) DeleteReturningMedia(_ context.Context, id uuid.UUID) ([]models.PostCommentAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return nil, pgx.ErrNoRows
	}
	attachments := r.attachments[id]
	delete(r.comments, id)
	delete(r.attachments, id)
	return attachments, nil
}

func (r *fakeCommentRepo) ListByPost(_ context.Context, postID uuid.UUID) ([]models.PostComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var comments []models.PostComment
	for _, c := range r.comments {
		if c.PostID == postID {
			result := *c
			result.Attachments = append([]models.PostCommentAttachment(nil), r.attachments[c.ID]...)
			comments = append(comments, result)
		}
	}
	return comments, nil
}

var testFolders = map[string]string{
	FieldPostImage:          "posts/images",
	FieldPostAttachments:    "posts/attachments",
	FieldCommentAttachments: "comments/attachments",
}

func newTestPostService() (*PostService, *fakePostRepo, *fakeMediaStore, *MediaExecutor) {
	repo := newFakePostRepo()
	store := newFakeMediaStore()
	executor := NewMediaExecutor(store)
	service := NewPostService(repo, NewMediaAllocator(testFolders), executor, store)
	return service, repo, store, executor
}

func newTestCommentService() (*PostCommentService, *fakeCommentRepo, *fakeMediaStore, *MediaExecutor) {
	repo := newFakeCommentRepo()
	store := newFakeMediaStore()
	executor := NewMediaExecutor(store)
	service := NewPostCommentService(repo, NewMediaAllocator(testFolders), executor, store)
	return service, repo, store, executor
}
