package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

type FollowRepo struct {
	s *Store
}

func (r *FollowRepo) Toggle(ctx context.Context, followerID, followeeID uuid.UUID) (*domain.FollowState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[followerID]; !ok {
		return nil, repository.ErrNotFound
	}
	if _, ok := r.s.users[followeeID]; !ok {
		return nil, repository.ErrNotFound
	}

	kept := r.s.follows[:0:0]
	removed := false
	for _, f := range r.s.follows {
		if f.follow.FollowerID == followerID && f.follow.FolloweeID == followeeID {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	if !removed {
		kept = append(kept, followRecord{
			follow: domain.Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: time.Now().UTC()},
			seq:    r.s.nextSeq(),
		})
	}
	r.s.follows = kept

	state := &domain.FollowState{
		FollowerID: followerID,
		FolloweeID: followeeID,
		Following:  !removed,
	}
	for _, f := range r.s.follows {
		if f.follow.FolloweeID == followeeID {
			state.FollowerCount++
		}
		if f.follow.FollowerID == followerID {
			state.FollowingCount++
		}
	}
	return state, nil
}

func (r *FollowRepo) ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.list(func(f domain.Follow) (uuid.UUID, bool) {
		return f.FollowerID, f.FolloweeID == userID
	})
}

func (r *FollowRepo) ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.list(func(f domain.Follow) (uuid.UUID, bool) {
		return f.FolloweeID, f.FollowerID == userID
	})
}

// list walks edges newest first; follows is kept in insertion order.
func (r *FollowRepo) list(pick func(domain.Follow) (uuid.UUID, bool)) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]uuid.UUID, 0)
	for i := len(r.s.follows) - 1; i >= 0; i-- {
		if id, ok := pick(r.s.follows[i].follow); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
