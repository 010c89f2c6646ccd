package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

type FollowRepo struct {
	pool *pgxpool.Pool
}

func NewFollowRepo(pool *pgxpool.Pool) *FollowRepo {
	return &FollowRepo{pool: pool}
}

// Toggle locks both user rows in id order, then flips the edge and reads the
// resulting counts inside the same transaction.
func (r *FollowRepo) Toggle(ctx context.Context, followerID, followeeID uuid.UUID) (*domain.FollowState, error) {
	state := &domain.FollowState{FollowerID: followerID, FolloweeID: followeeID}

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			"SELECT id FROM users WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE",
			[]uuid.UUID{followerID, followeeID},
		)
		if err != nil {
			return err
		}
		locked := 0
		for rows.Next() {
			locked++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if locked != 2 {
			return repository.ErrNotFound
		}

		tag, err := tx.Exec(ctx,
			"DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2",
			followerID, followeeID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			_, err = tx.Exec(ctx,
				"INSERT INTO follows (follower_id, followee_id, created_at) VALUES ($1, $2, $3)",
				followerID, followeeID, time.Now().UTC(),
			)
			if err != nil {
				return err
			}
			state.Following = true
		}

		return tx.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM follows WHERE followee_id = $2),
				(SELECT COUNT(*) FROM follows WHERE follower_id = $1)`,
			followerID, followeeID,
		).Scan(&state.FollowerCount, &state.FollowingCount)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (r *FollowRepo) ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx,
		"SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY created_at DESC", userID)
}

func (r *FollowRepo) ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx,
		"SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY created_at DESC", userID)
}

func (r *FollowRepo) listIDs(ctx context.Context, query string, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
