package domain

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"-"`
	Author    *UserSummary `json:"user,omitempty"`
	Text      string       `json:"text"`
	Likes     []Like       `json:"likes"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Like struct {
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (p *Post) LikedBy(userID uuid.UUID) bool {
	for _, l := range p.Likes {
		if l.User.ID == userID {
			return true
		}
	}
	return false
}

type Comment struct {
	ID        uuid.UUID    `json:"id"`
	PostID    uuid.UUID    `json:"post"`
	UserID    uuid.UUID    `json:"-"`
	Author    *UserSummary `json:"user,omitempty"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"createdAt"`
}
