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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	Text         string    `bson:"text"`
	Likes        []likeDoc `bson:"likes"`
	CommentCount int64     `bson:"comment_count"`
	CreatedAt    time.Time `bson:"created_at"`
}

// likeDoc entries are kept newest first.
type likeDoc struct {
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
}

type PostRepo struct {
	s *Store
}

func (r *PostRepo) coll() *mongo.Collection {
	return r.s.db.Collection(postsCollection)
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	ok, err := r.s.userExists(ctx, post.UserID.String())
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}

	_, err = r.coll().InsertOne(ctx, postDoc{
		ID:        post.ID.String(),
		UserID:    post.UserID.String(),
		Text:      post.Text,
		Likes:     []likeDoc{},
		CreatedAt: post.CreatedAt,
	})
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var doc postDoc
	err := r.coll().FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	posts, err := r.hydrate(ctx, []postDoc{doc})
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *PostRepo) List(ctx context.Context) ([]domain.Post, error) {
	return r.find(ctx, bson.M{})
}

func (r *PostRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	return r.find(ctx, bson.M{"user_id": userID.String()})
}

// Delete removes the post and its comments in one transaction.
func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.withTx(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := r.coll().DeleteOne(sessCtx, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return repository.ErrNotFound
		}
		_, err = r.s.db.Collection(commentsCollection).DeleteMany(sessCtx, bson.M{"post_id": id.String()})
		return err
	})
}

// ToggleLike flips the user's like with a single pipeline update, so the
// membership test and the write happen atomically on the server.
func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID uuid.UUID) ([]domain.Like, error) {
	uid := userID.String()
	ok, err := r.s.userExists(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	likes := bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{uid, bson.M{"$ifNull": bson.A{"$likes.user_id", bson.A{}}}}},
				bson.M{"$filter": bson.M{
					"input": likes,
					"cond":  bson.M{"$ne": bson.A{"$$this.user_id", uid}},
				}},
				bson.M{"$concatArrays": bson.A{
					bson.A{bson.M{"user_id": uid, "created_at": now()}},
					likes,
				}},
			}},
		}}},
	}

	var doc postDoc
	err = r.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": postID.String()},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	posts, err := r.hydrate(ctx, []postDoc{doc})
	if err != nil {
		return nil, err
	}
	return posts[0].Likes, nil
}

func (r *PostRepo) find(ctx context.Context, filter bson.M) ([]domain.Post, error) {
	cur, err := r.coll().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return r.hydrate(ctx, docs)
}

// hydrate resolves author and liker summaries with one user lookup.
func (r *PostRepo) hydrate(ctx context.Context, docs []postDoc) ([]domain.Post, error) {
	seen := make(map[string]struct{})
	var userIDs []string
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			userIDs = append(userIDs, id)
		}
	}
	for _, d := range docs {
		add(d.UserID)
		for _, l := range d.Likes {
			add(l.UserID)
		}
	}

	users, err := r.s.summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, err
		}
		authorID, err := uuid.Parse(d.UserID)
		if err != nil {
			return nil, err
		}

		author, ok := users[d.UserID]
		if !ok {
			author = domain.UserSummary{ID: authorID}
		}

		likes := make([]domain.Like, 0, len(d.Likes))
		for _, l := range d.Likes {
			sum, ok := users[l.UserID]
			if !ok {
				likerID, err := uuid.Parse(l.UserID)
				if err != nil {
					return nil, err
				}
				sum = domain.UserSummary{ID: likerID}
			}
			likes = append(likes, domain.Like{User: sum, CreatedAt: l.CreatedAt})
		}

		posts = append(posts, domain.Post{
			ID:        id,
			UserID:    authorID,
			Author:    &author,
			Text:      d.Text,
			Likes:     likes,
			CreatedAt: d.CreatedAt,
		})
	}
	return posts, nil
}
