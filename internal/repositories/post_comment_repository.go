package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

type PostCommentRepository struct {
	pool *pgxpool.Pool
}

func NewPostCommentRepository(pool *pgxpool.Pool) *PostCommentRepository {
	return &PostCommentRepository{pool: pool}
}

// CreateWithAttachments inserts the comment row and all attachment rows in
// one transaction. Fails with a foreign key violation if the post (or parent
// comment) does not exist; no upload happens in that case.
func (r *PostCommentRepository) CreateWithAttachments(ctx context.Context, comment *models.PostComment, attachments []models.PostCommentAttachment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO post_comments(post_id, author_id, parent_comment_id, content)
		 VALUES($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		comment.PostID, comment.AuthorID, comment.ParentCommentID, comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range attachments {
		attachments[i].CommentID = comment.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO post_comment_attachments(comment_id, file, filename, resource_type, position)
			 VALUES($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			comment.ID, attachments[i].File, attachments[i].Filename, attachments[i].ResourceType, i,
		).Scan(&attachments[i].ID, &attachments[i].CreatedAt)
		if err != nil {
			return err
		}
	}
	comment.Attachments = attachments

	return tx.Commit(ctx)
}

// MediaState returns the committed attachment rows for a comment.
// Returns pgx.ErrNoRows if the comment does not exist.
func (r *PostCommentRepository) MediaState(ctx context.Context, id uuid.UUID) ([]models.PostCommentAttachment, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT TRUE FROM post_comments WHERE id = $1`, id,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	return r.attachmentsByComment(ctx, id)
}

// UpdateWithAttachments updates the comment row and, when requested,
// replaces the whole attachment set, all in one transaction.
func (r *PostCommentRepository) UpdateWithAttachments(ctx context.Context, id uuid.UUID, upd models.PostCommentUpdate, attachments []models.PostCommentAttachment) (*models.PostComment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var comment models.PostComment
	err = tx.QueryRow(ctx,
		`UPDATE post_comments SET
			content = COALESCE($2, content),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, post_id, author_id, parent_comment_id, content, created_at, updated_at`,
		id, upd.Content,
	).Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.ParentCommentID,
		&comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if upd.ReplaceAttachments {
		if _, err := tx.Exec(ctx, `DELETE FROM post_comment_attachments WHERE comment_id = $1`, id); err != nil {
			return nil, err
		}
		for i := range attachments {
			attachments[i].CommentID = id
			err = tx.QueryRow(ctx,
				`INSERT INTO post_comment_attachments(comment_id, file, filename, resource_type, position)
				 VALUES($1, $2, $3, $4, $5)
				 RETURNING id, created_at`,
				id, attachments[i].File, attachments[i].Filename, attachments[i].ResourceType, i,
			).Scan(&attachments[i].ID, &attachments[i].CreatedAt)
			if err != nil {
				return nil, err
			}
		}
		comment.Attachments = attachments
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if !upd.ReplaceAttachments {
		comment.Attachments, err = r.attachmentsByComment(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return &comment, nil
}

// DeleteReturningMedia deletes the comment (attachments cascade) and returns
// the attachment rows the caller must reclaim. Returns pgx.ErrNoRows if the
// comment does not exist.
func (r *PostCommentRepository) DeleteReturningMedia(ctx context.Context, id uuid.UUID) ([]models.PostCommentAttachment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	attachments, err := r.attachmentsByCommentTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM post_comments WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return attachments, nil
}

// ListByPost returns all comments for a post in creation order, each with its
// attachments.
func (r *PostCommentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]models.PostComment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, post_id, author_id, parent_comment_id, content, created_at, updated_at
		 FROM post_comments WHERE post_id = $1
		 ORDER BY created_at, id`, postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.PostComment
	for rows.Next() {
		var c models.PostComment
		err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentCommentID,
			&c.Content, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range comments {
		comments[i].Attachments, err = r.attachmentsByComment(ctx, comments[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return comments, nil
}

func (r *PostCommentRepository) attachmentsByComment(ctx context.Context, commentID uuid.UUID) ([]models.PostCommentAttachment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, comment_id, file, filename, resource_type, created_at
		 FROM post_comment_attachments WHERE comment_id = $1
		 ORDER BY position, id`, commentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommentAttachments(rows)
}

func (r *PostCommentRepository) attachmentsByCommentTx(ctx context.Context, tx pgx.Tx, commentID uuid.UUID) ([]models.PostCommentAttachment, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, comment_id, file, filename, resource_type, created_at
		 FROM post_comment_attachments WHERE comment_id = $1
		 ORDER BY position, id`, commentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommentAttachments(rows)
}

func scanCommentAttachments(rows pgx.Rows) ([]models.PostCommentAttachment, error) {
	var attachments []models.PostCommentAttachment
	for rows.Next() {
		var a models.PostCommentAttachment
		if err := rows.Scan(&a.ID, &a.CommentID, &a.File, &a.Filename, &a.ResourceType, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
