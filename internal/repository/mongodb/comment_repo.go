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

type commentDoc struct {
	ID        string    `bson:"_id"`
	PostID    string    `bson:"post_id"`
	UserID    string    `bson:"user_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

type CommentRepo struct {
	s *Store
}

func (r *CommentRepo) coll() *mongo.Collection {
	return r.s.db.Collection(commentsCollection)
}

// Create bumps the post's comment counter in the same transaction as the
// insert. The write on the post document conflicts with a concurrent
// PostRepo.Delete, so one of the two transactions is retried and the
// comment is never left without its post.
func (r *CommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	return r.s.withTx(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := r.s.db.Collection(postsCollection).UpdateOne(sessCtx,
			bson.M{"_id": comment.PostID.String()},
			bson.M{"$inc": bson.M{"comment_count": 1}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return repository.ErrNotFound
		}

		ok, err := r.s.userExists(sessCtx, comment.UserID.String())
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}

		_, err = r.coll().InsertOne(sessCtx, commentDoc{
			ID:        comment.ID.String(),
			PostID:    comment.PostID.String(),
			UserID:    comment.UserID.String(),
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		})
		return err
	})
}

func (r *CommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var doc commentDoc
	err := r.coll().FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	comments, err := r.hydrate(ctx, []commentDoc{doc})
	if err != nil {
		return nil, err
	}
	return &comments[0], nil
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	cur, err := r.coll().Find(ctx,
		bson.M{"post_id": postID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return r.hydrate(ctx, docs)
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.withTx(ctx, func(sessCtx mongo.SessionContext) error {
		var doc commentDoc
		err := r.coll().FindOneAndDelete(sessCtx, bson.M{"_id": id.String()}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = r.s.db.Collection(postsCollection).UpdateOne(sessCtx,
			bson.M{"_id": doc.PostID},
			bson.M{"$inc": bson.M{"comment_count": -1}},
		)
		return err
	})
}

func (r *CommentRepo) hydrate(ctx context.Context, docs []commentDoc) ([]domain.Comment, error) {
	userIDs := make([]string, 0, len(docs))
	for _, d := range docs {
		userIDs = append(userIDs, d.UserID)
	}
	users, err := r.s.summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, err
		}
		postID, err := uuid.Parse(d.PostID)
		if err != nil {
			return nil, err
		}
		userID, err := uuid.Parse(d.UserID)
		if err != nil {
			return nil, err
		}
		author, ok := users[d.UserID]
		if !ok {
			author = domain.UserSummary{ID: userID}
		}
		comments = append(comments, domain.Comment{
			ID:        id,
			PostID:    postID,
			UserID:    userID,
			Author:    &author,
			Text:      d.Text,
			CreatedAt: d.CreatedAt,
		})
	}
	return comments, nil
}
