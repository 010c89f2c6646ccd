package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type followDoc struct {
	FollowerID string    `bson:"follower_id"`
	FolloweeID string    `bson:"followee_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

type FollowRepo struct {
	s *Store
}

func (r *FollowRepo) coll() *mongo.Collection {
	return r.s.db.Collection(followsCollection)
}

func (r *FollowRepo) Toggle(ctx context.Context, followerID, followeeID uuid.UUID) (*domain.FollowState, error) {
	follower, followee := followerID.String(), followeeID.String()
	state := &domain.FollowState{FollowerID: followerID, FolloweeID: followeeID}

	err := r.s.withTx(ctx, func(sessCtx mongo.SessionContext) error {
		// a retried transaction must not carry state from the aborted attempt
		state.Following = false

		n, err := r.s.db.Collection(usersCollection).CountDocuments(sessCtx,
			bson.M{"_id": bson.M{"$in": bson.A{follower, followee}}})
		if err != nil {
			return err
		}
		if n != 2 {
			return repository.ErrNotFound
		}

		edge := bson.M{"follower_id": follower, "followee_id": followee}
		res, err := r.coll().DeleteOne(sessCtx, edge)
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			if _, err := r.coll().InsertOne(sessCtx, followDoc{
				FollowerID: follower,
				FolloweeID: followee,
				CreatedAt:  now(),
			}); err != nil {
				return err
			}
			state.Following = true
		}

		followers, err := r.coll().CountDocuments(sessCtx, bson.M{"followee_id": followee})
		if err != nil {
			return err
		}
		following, err := r.coll().CountDocuments(sessCtx, bson.M{"follower_id": follower})
		if err != nil {
			return err
		}
		state.FollowerCount = int(followers)
		state.FollowingCount = int(following)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (r *FollowRepo) ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.list(ctx, bson.M{"followee_id": userID.String()}, func(d followDoc) string { return d.FollowerID })
}

func (r *FollowRepo) ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.list(ctx, bson.M{"follower_id": userID.String()}, func(d followDoc) string { return d.FolloweeID })
}

func (r *FollowRepo) list(ctx context.Context, filter bson.M, pick func(followDoc) string) ([]uuid.UUID, error) {
	cur, err := r.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []followDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	raw := make([]string, 0, len(docs))
	for _, d := range docs {
		raw = append(raw, pick(d))
	}
	return parseIDs(raw)
}
