package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// testMongoURI returns the MongoDB URI for tests, overridable via
// TASKHIVE_TEST_MONGO_URI.
func testMongoURI() string {
	if uri := os.Getenv("TASKHIVE_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

// SetupTestDB connects to a local MongoDB and returns a uniquely-named
// database that is dropped when the test finishes. Tests are skipped when
// no MongoDB is reachable, so the Mongo-backed suites run only where a
// server is available.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(testMongoURI()))
	if err != nil {
		t.Skipf("mongodb not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongodb not reachable: %v", err)
	}

	db := client.Database(fmt.Sprintf("taskhive_test_%s", primitive.NewObjectID().Hex()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with a generous timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
