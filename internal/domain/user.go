package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxBioLength          = 280
	DefaultProfilePicture = "https://placehold.co/100x100/A0B0C0/FFFFFF?text=P"
)

type User struct {
	ID             uuid.UUID   `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	PasswordHash   string      `json:"-"`
	Bio            string      `json:"bio"`
	ProfilePicture string      `json:"profilePicture"`
	Followers      []uuid.UUID `json:"followers"`
	Following      []uuid.UUID `json:"following"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// UserSummary is the author/liker view embedded in posts and comments.
type UserSummary struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// Follow is a directed edge: FollowerID follows FolloweeID.
type Follow struct {
	FollowerID uuid.UUID `json:"follower"`
	FolloweeID uuid.UUID `json:"followee"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FollowState describes the pair after a follow toggle.
type FollowState struct {
	FollowerID     uuid.UUID `json:"follower"`
	FolloweeID     uuid.UUID `json:"followee"`
	Following      bool      `json:"following"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
}
