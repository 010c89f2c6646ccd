package mongodb

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/repository/repotest"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestStoreBehavior needs a replica set, since the repositories use
// transactions, e.g. CIRCLE_TEST_MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0
func TestStoreBehavior(t *testing.T) {
	uri := os.Getenv("CIRCLE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CIRCLE_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}

	dbName := "circle_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	store := NewStore(client, dbName)
	t.Cleanup(func() {
		if err := store.db.Drop(context.Background()); err != nil {
			t.Logf("dropping %s: %v", dbName, err)
		}
		client.Disconnect(context.Background())
	})

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("creating indexes: %v", err)
	}

	repotest.Run(t, func(t *testing.T) repotest.Stores {
		return repotest.Stores{
			Users:    store.Users(),
			Posts:    store.Posts(),
			Comments: store.Comments(),
			Follows:  store.Follows(),
		}
	})
}
