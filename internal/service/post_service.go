package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
	"github.com/vedran77/circle/pkg/validator"
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

type CreatePostInput struct {
	Text string `json:"text"`
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*domain.Post, error) {
	if errs := validator.ValidatePost(input.Text); errs.HasErrors() {
		return nil, invalid(errs)
	}

	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrUserNotFound
	}

	summary := author.Summary()
	post := &domain.Post{
		ID:        uuid.New(),
		UserID:    authorID,
		Text:      strings.TrimSpace(input.Text),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("creating post: %w", err)
	}

	post.Author = &summary
	post.Likes = []domain.Like{}
	return post, nil
}

func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	return s.postRepo.List(ctx)
}

func (s *PostService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	return s.postRepo.ListByUser(ctx, userID)
}

// Delete removes the post together with every comment that references it.
func (s *PostService) Delete(ctx context.Context, requesterID, postID uuid.UUID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.UserID != requesterID {
		return ErrNotPostOwner
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("deleting post: %w", err)
	}
	return nil
}

// ToggleLike likes the post for requesterID, or removes the like if it is
// already there, and returns the resulting like list.
func (s *PostService) ToggleLike(ctx context.Context, requesterID, postID uuid.UUID) ([]domain.Like, error) {
	likes, err := s.postRepo.ToggleLike(ctx, postID, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("toggling like: %w", err)
	}
	return likes, nil
}
