package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

type PostRepo struct {
	s *Store
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[post.UserID]; !ok {
		return repository.ErrNotFound
	}

	stored := *post
	stored.Author = nil
	stored.Likes = nil
	r.s.posts[post.ID] = &postRecord{post: stored, seq: r.s.nextSeq()}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	p := r.s.hydratePost(rec)
	return &p, nil
}

func (r *PostRepo) List(ctx context.Context) ([]domain.Post, error) {
	return r.list(func(*postRecord) bool { return true })
}

func (r *PostRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	return r.list(func(rec *postRecord) bool { return rec.post.UserID == userID })
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.posts, id)
	for cid, c := range r.s.comments {
		if c.comment.PostID == id {
			delete(r.s.comments, cid)
		}
	}
	return nil
}

func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID uuid.UUID) ([]domain.Like, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.posts[postID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}

	kept := make([]likeRecord, 0, len(rec.likes)+1)
	removed := false
	for _, l := range rec.likes {
		if l.userID == userID {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if !removed {
		kept = append([]likeRecord{{userID: userID, createdAt: time.Now().UTC()}}, kept...)
	}
	rec.likes = kept

	return r.s.hydrateLikes(rec.likes), nil
}

func (r *PostRepo) list(match func(*postRecord) bool) ([]domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recs := make([]*postRecord, 0, len(r.s.posts))
	for _, rec := range r.s.posts {
		if match(rec) {
			recs = append(recs, rec)
		}
	}
	sortPostsNewestFirst(recs)

	posts := make([]domain.Post, 0, len(recs))
	for _, rec := range recs {
		posts = append(posts, r.s.hydratePost(rec))
	}
	return posts, nil
}
