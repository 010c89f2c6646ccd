package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
	"github.com/vedran77/circle/pkg/validator"
)

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
	}
}

// UpdateProfileInput carries only the fields the client sent.
type UpdateProfileInput struct {
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profilePicture"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.Followers, err = s.followRepo.ListFollowers(ctx, userID); err != nil {
		return nil, fmt.Errorf("listing followers: %w", err)
	}
	if user.Following, err = s.followRepo.ListFollowing(ctx, userID); err != nil {
		return nil, fmt.Errorf("listing following: %w", err)
	}

	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	if errs := validator.ValidateProfile(input.Bio, input.ProfilePicture); errs.HasErrors() {
		return nil, invalid(errs)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.ProfilePicture != nil {
		user.ProfilePicture = *input.ProfilePicture
		if user.ProfilePicture == "" {
			user.ProfilePicture = domain.DefaultProfilePicture
		}
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// ToggleFollow follows targetID when requesterID does not follow it yet and
// unfollows otherwise. The edge is a single record, so both sides of the
// relationship change together.
func (s *UserService) ToggleFollow(ctx context.Context, requesterID, targetID uuid.UUID) (*domain.FollowState, error) {
	if requesterID == targetID {
		return nil, ErrCannotFollowSelf
	}

	state, err := s.followRepo.Toggle(ctx, requesterID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("toggling follow: %w", err)
	}

	return state, nil
}
