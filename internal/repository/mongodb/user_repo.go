package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDoc struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	Email          string    `bson:"email"`
	PasswordHash   string    `bson:"password_hash"`
	Bio            string    `bson:"bio"`
	ProfilePicture string    `bson:"profile_picture"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d userDoc) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:             id,
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		Bio:            d.Bio,
		ProfilePicture: d.ProfilePicture,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

type UserRepo struct {
	s *Store
}

func (r *UserRepo) coll() *mongo.Collection {
	return r.s.db.Collection(usersCollection)
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	_, err := r.coll().InsertOne(ctx, userDoc{
		ID:             user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		PasswordHash:   user.PasswordHash,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	})
	switch {
	case duplicateKeyOn(err, "email_unique"):
		return repository.ErrDuplicateEmail
	case duplicateKeyOn(err, "username_unique"):
		return repository.ErrDuplicateUsername
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": user.ID.String()},
		bson.M{"$set": bson.M{
			"bio":             user.Bio,
			"profile_picture": user.ProfilePicture,
			"updated_at":      user.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	err := r.coll().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}
