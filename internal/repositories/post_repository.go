package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

// CreateWithAttachments inserts the post row and all attachment rows in one
// transaction. The rows reference object keys whose bytes are uploaded only
// after this commit succeeds.
func (r *PostRepository) CreateWithAttachments(ctx context.Context, post *models.Post, attachments []models.PostAttachment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO posts(author_id, title, content, funds_to_be_raised, image, is_draft)
		 VALUES($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		post.AuthorID, post.Title, post.Content, post.FundsToBeRaised, post.Image, post.IsDraft,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range attachments {
		attachments[i].PostID = post.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO post_attachments(post_id, file, filename, resource_type, position)
			 VALUES($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			post.ID, attachments[i].File, attachments[i].Filename, attachments[i].ResourceType, i,
		).Scan(&attachments[i].ID, &attachments[i].CreatedAt)
		if err != nil {
			return err
		}
	}
	post.Attachments = attachments

	return tx.Commit(ctx)
}

// MediaState returns the committed cover image key and attachment rows for a
// post. Returns pgx.ErrNoRows if the post does not exist.
func (r *PostRepository) MediaState(ctx context.Context, id uuid.UUID) (*string, []models.PostAttachment, error) {
	var image *string
	err := r.pool.QueryRow(ctx, `SELECT image FROM posts WHERE id = $1`, id).Scan(&image)
	if err != nil {
		return nil, nil, err
	}

	attachments, err := r.attachmentsByPost(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return image, attachments, nil
}

// UpdateWithAttachments updates the post row and, when requested, replaces
// the whole attachment set, all in one transaction.
func (r *PostRepository) UpdateWithAttachments(ctx context.Context, id uuid.UUID, upd models.PostUpdate, attachments []models.PostAttachment) (*models.Post, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var post models.Post
	err = tx.QueryRow(ctx,
		`UPDATE posts SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			funds_to_be_raised = COALESCE($4, funds_to_be_raised),
			is_draft = COALESCE($5, is_draft),
			image = CASE WHEN $6 THEN $7 ELSE image END,
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, author_id, title, content, funds_to_be_raised, image, is_draft, created_at, updated_at`,
		id, upd.Title, upd.Content, upd.FundsToBeRaised, upd.IsDraft, upd.SetImage, upd.Image,
	).Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.FundsToBeRaised,
		&post.Image, &post.IsDraft, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if upd.ReplaceAttachments {
		if _, err := tx.Exec(ctx, `DELETE FROM post_attachments WHERE post_id = $1`, id); err != nil {
			return nil, err
		}
		for i := range attachments {
			attachments[i].PostID = id
			err = tx.QueryRow(ctx,
				`INSERT INTO post_attachments(post_id, file, filename, resource_type, position)
				 VALUES($1, $2, $3, $4, $5)
				 RETURNING id, created_at`,
				id, attachments[i].File, attachments[i].Filename, attachments[i].ResourceType, i,
			).Scan(&attachments[i].ID, &attachments[i].CreatedAt)
			if err != nil {
				return nil, err
			}
		}
		post.Attachments = attachments
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if !upd.ReplaceAttachments {
		post.Attachments, err = r.attachmentsByPost(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return &post, nil
}

// DeleteReturningMedia deletes the post (attachments cascade) and returns the
// media references the caller must reclaim. Returns pgx.ErrNoRows if the post
// does not exist.
func (r *PostRepository) DeleteReturningMedia(ctx context.Context, id uuid.UUID) (*string, []models.PostAttachment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	attachments, err := r.attachmentsByPostTx(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	var image *string
	err = tx.QueryRow(ctx, `DELETE FROM posts WHERE id = $1 RETURNING image`, id).Scan(&image)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return image, attachments, nil
}

// GetWithAttachments retrieves a post with its attachment rows.
func (r *PostRepository) GetWithAttachments(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, title, content, funds_to_be_raised, image, is_draft, created_at, updated_at
		 FROM posts WHERE id = $1`, id,
	).Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.FundsToBeRaised,
		&post.Image, &post.IsDraft, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.Attachments, err = r.attachmentsByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns published posts, newest first.
func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, author_id, title, content, funds_to_be_raised, image, is_draft, created_at, updated_at
		 FROM posts
		 WHERE is_draft = FALSE
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content,
			&post.FundsToBeRaised, &post.Image, &post.IsDraft, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *PostRepository) attachmentsByPostTx(ctx context.Context, tx pgx.Tx, postID uuid.UUID) ([]models.PostAttachment, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, post_id, file, filename, resource_type, created_at
		 FROM post_attachments WHERE post_id = $1
		 ORDER BY position, id`, postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []models.PostAttachment
	for rows.Next() {
		var a models.PostAttachment
		if err := rows.Scan(&a.ID, &a.PostID, &a.File, &a.Filename, &a.ResourceType, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *PostRepository) attachmentsByPost(ctx context.Context, postID uuid.UUID) ([]models.PostAttachment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, post_id, file, filename, resource_type, created_at
		 FROM post_attachments WHERE post_id = $1
		 ORDER BY position, id`, postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []models.PostAttachment
	for rows.Next() {
		var a models.PostAttachment
		if err := rows.Scan(&a.ID, &a.PostID, &a.File, &a.Filename, &a.ResourceType, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
