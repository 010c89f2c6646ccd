// Package memory is a process-local implementation of the repository
// interfaces. A single mutex guards all collections, so every operation,
// including cascades and toggles, is atomic.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	seq      uint64
	users    map[uuid.UUID]*domain.User
	posts    map[uuid.UUID]*postRecord
	comments map[uuid.UUID]*commentRecord
	follows  []followRecord
}

type postRecord struct {
	post  domain.Post
	likes []likeRecord // newest first
	seq   uint64
}

type likeRecord struct {
	userID    uuid.UUID
	createdAt time.Time
}

type commentRecord struct {
	comment domain.Comment
	seq     uint64
}

type followRecord struct {
	follow domain.Follow
	seq    uint64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*domain.User),
		posts:    make(map[uuid.UUID]*postRecord),
		comments: make(map[uuid.UUID]*commentRecord),
	}
}

func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }
func (s *Store) Posts() *PostRepo       { return &PostRepo{s: s} }
func (s *Store) Comments() *CommentRepo { return &CommentRepo{s: s} }
func (s *Store) Follows() *FollowRepo   { return &FollowRepo{s: s} }

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// summary must be called with the lock held.
func (s *Store) summary(id uuid.UUID) *domain.UserSummary {
	u, ok := s.users[id]
	if !ok {
		return &domain.UserSummary{ID: id}
	}
	sum := u.Summary()
	return &sum
}

// hydratePost must be called with the lock held.
func (s *Store) hydratePost(rec *postRecord) domain.Post {
	p := rec.post
	p.Author = s.summary(p.UserID)
	p.Likes = s.hydrateLikes(rec.likes)
	return p
}

func (s *Store) hydrateLikes(likes []likeRecord) []domain.Like {
	out := make([]domain.Like, 0, len(likes))
	for _, l := range likes {
		out = append(out, domain.Like{
			User:      *s.summary(l.userID),
			CreatedAt: l.createdAt,
		})
	}
	return out
}

func sortPostsNewestFirst(recs []*postRecord) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})
}
