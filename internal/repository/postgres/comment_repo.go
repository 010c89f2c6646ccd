package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

const commentSelect = `
	SELECT c.id, c.post_id, c.user_id, c.text, c.created_at, u.username, u.profile_picture
	FROM comments c
	JOIN users u ON c.user_id = u.id`

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

// Create holds a share lock on the post so a concurrent delete cannot leave
// the comment orphaned.
func (r *CommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var postID uuid.UUID
		err := tx.QueryRow(ctx, "SELECT id FROM posts WHERE id = $1 FOR SHARE", comment.PostID).Scan(&postID)
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"INSERT INTO comments (id, post_id, user_id, text, created_at) VALUES ($1, $2, $3, $4, $5)",
			comment.ID, comment.PostID, comment.UserID, comment.Text, comment.CreatedAt,
		)
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return err
	})
}

func (r *CommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var c domain.Comment
	author := &domain.UserSummary{}
	err := r.pool.QueryRow(ctx, commentSelect+" WHERE c.id = $1", id).Scan(
		&c.ID, &c.PostID, &c.UserID, &c.Text, &c.CreatedAt, &author.Username, &author.ProfilePicture,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	author.ID = c.UserID
	c.Author = author
	return &c, nil
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, commentSelect+" WHERE c.post_id = $1 ORDER BY c.created_at, c.id", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		author := &domain.UserSummary{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Text, &c.CreatedAt, &author.Username, &author.ProfilePicture); err != nil {
			return nil, err
		}
		author.ID = c.UserID
		c.Author = author
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
