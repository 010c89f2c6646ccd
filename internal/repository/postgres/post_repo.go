package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

const postSelect = `
	SELECT p.id, p.user_id, p.text, p.created_at, u.username, u.profile_picture
	FROM posts p
	JOIN users u ON p.user_id = u.id`

const likeSelect = `
	SELECT l.post_id, l.user_id, l.created_at, u.username, u.profile_picture
	FROM post_likes l
	JOIN users u ON l.user_id = u.id`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO posts (id, user_id, text, created_at) VALUES ($1, $2, $3, $4)",
		post.ID, post.UserID, post.Text, post.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return repository.ErrNotFound
	}
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	posts, err := r.query(ctx, postSelect+" WHERE p.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

func (r *PostRepo) List(ctx context.Context) ([]domain.Post, error) {
	return r.query(ctx, postSelect+" ORDER BY p.created_at DESC, p.id")
}

func (r *PostRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	return r.query(ctx, postSelect+" WHERE p.user_id = $1 ORDER BY p.created_at DESC, p.id", userID)
}

// Delete removes the post, its likes and its comments in one transaction.
func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM comments WHERE post_id = $1", id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM post_likes WHERE post_id = $1", id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

// ToggleLike locks the post row so concurrent toggles on the same post are
// serialized and none of them is lost.
func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID uuid.UUID) ([]domain.Like, error) {
	var likes []domain.Like

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRow(ctx, "SELECT id FROM posts WHERE id = $1 FOR UPDATE", postID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, "DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2", postID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			_, err = tx.Exec(ctx,
				"INSERT INTO post_likes (post_id, user_id, created_at) VALUES ($1, $2, $3)",
				postID, userID, time.Now().UTC(),
			)
			if isForeignKeyViolation(err) {
				return repository.ErrNotFound
			}
			if err != nil {
				return err
			}
		}

		byPost, err := loadLikes(ctx, tx, []uuid.UUID{postID})
		if err != nil {
			return err
		}
		likes = byPost[postID]
		return nil
	})
	if err != nil {
		return nil, err
	}

	if likes == nil {
		likes = []domain.Like{}
	}
	return likes, nil
}

func (r *PostRepo) query(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var p domain.Post
		author := &domain.UserSummary{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.CreatedAt, &author.Username, &author.ProfilePicture); err != nil {
			return nil, err
		}
		author.ID = p.UserID
		p.Author = author
		posts = append(posts, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	byPost, err := loadLikes(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Likes = byPost[posts[i].ID]
		if posts[i].Likes == nil {
			posts[i].Likes = []domain.Like{}
		}
	}
	return posts, nil
}

// loadLikes returns the likes of each post, newest first.
func loadLikes(ctx context.Context, q querier, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Like, error) {
	rows, err := q.Query(ctx, likeSelect+" WHERE l.post_id = ANY($1::uuid[]) ORDER BY l.created_at DESC", postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPost := make(map[uuid.UUID][]domain.Like, len(postIDs))
	for rows.Next() {
		var postID uuid.UUID
		var l domain.Like
		if err := rows.Scan(&postID, &l.User.ID, &l.CreatedAt, &l.User.Username, &l.User.ProfilePicture); err != nil {
			return nil, err
		}
		byPost[postID] = append(byPost[postID], l)
	}
	return byPost, rows.Err()
}
