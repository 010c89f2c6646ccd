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

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, userRepo repository.UserRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

type CreateCommentInput struct {
	Text string `json:"text"`
}

func (s *CommentService) Create(ctx context.Context, authorID, postID uuid.UUID, input CreateCommentInput) (*domain.Comment, error) {
	if errs := validator.ValidateComment(input.Text); errs.HasErrors() {
		return nil, invalid(errs)
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrUserNotFound
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    authorID,
		Text:      strings.TrimSpace(input.Text),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		// the post may have been deleted between the lookup and the insert
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	comment.Author = &domain.UserSummary{ID: author.ID, Username: author.Username}
	return comment, nil
}

func (s *CommentService) ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *CommentService) Delete(ctx context.Context, requesterID, postID, commentID uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil || comment.PostID != postID {
		return ErrCommentNotFound
	}
	if comment.UserID != requesterID {
		return ErrNotCommentOwner
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("deleting comment: %w", err)
	}
	return nil
}
