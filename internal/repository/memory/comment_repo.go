package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

type CommentRepo struct {
	s *Store
}

func (r *CommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[comment.PostID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.users[comment.UserID]; !ok {
		return repository.ErrNotFound
	}

	stored := *comment
	stored.Author = nil
	r.s.comments[comment.ID] = &commentRecord{comment: stored, seq: r.s.nextSeq()}
	return nil
}

func (r *CommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	c := r.hydrate(rec)
	return &c, nil
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recs := make([]*commentRecord, 0)
	for _, rec := range r.s.comments {
		if rec.comment.PostID == postID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.comment.CreatedAt.Equal(b.comment.CreatedAt) {
			return a.comment.CreatedAt.Before(b.comment.CreatedAt)
		}
		return a.seq < b.seq
	})

	comments := make([]domain.Comment, 0, len(recs))
	for _, rec := range recs {
		comments = append(comments, r.hydrate(rec))
	}
	return comments, nil
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r *CommentRepo) hydrate(rec *commentRecord) domain.Comment {
	c := rec.comment
	c.Author = r.s.summary(c.UserID)
	return c
}
