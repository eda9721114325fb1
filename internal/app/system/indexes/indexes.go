// internal/app/system/indexes/indexes.go

// Package indexes creates the MongoDB indexes the application relies on.
//
// The unique indexes are load-bearing: user-email and invitee-email
// uniqueness are invariants enforced at the storage layer (duplicate-key
// errors surface as domain conflicts), and the sparse unique index on
// invite_token guarantees a token maps to at most one pending invitation.
package indexes

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Ensure creates all required indexes. Safe to call on every startup;
// CreateMany is a no-op for indexes that already exist.
func Ensure(ctx context.Context, db *mongo.Database) error {
	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email_unique").SetUnique(true),
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, users); err != nil {
		return err
	}

	people := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_people_email_unique").SetUnique(true),
		},
		{
			// Sparse: only documents with a pending token participate, so a
			// consumed ($unset) token frees the slot without violating
			// uniqueness across redeemed invitees.
			Keys:    bson.D{{Key: "invite_token", Value: 1}},
			Options: options.Index().SetName("idx_people_token_unique").SetUnique(true).SetSparse(true),
		},
	}
	if _, err := db.Collection("people").Indexes().CreateMany(ctx, people); err != nil {
		return err
	}

	tasks := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetName("idx_tasks_owner"),
		},
		{
			Keys:    bson.D{{Key: "shared_with.email", Value: 1}},
			Options: options.Index().SetName("idx_tasks_shared_email"),
		},
	}
	if _, err := db.Collection("tasks").Indexes().CreateMany(ctx, tasks); err != nil {
		return err
	}

	return nil
}
