package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateUsername = errors.New("duplicate username")
)

// Getters return (nil, nil) when the record does not exist. Multi-record
// writes (toggles, cascades) return ErrNotFound when a referenced record is
// missing and are atomic in every implementation.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followeeID uuid.UUID) (*domain.FollowState, error)
	ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) ([]domain.Like, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
