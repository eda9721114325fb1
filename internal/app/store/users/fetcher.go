// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each
// request. Reading the plan from the database per request means a payment
// upgrade is visible on the very next request without re-login.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a UserFetcher that queries the given store.
func NewFetcher(s *Store) *Fetcher {
	return &Fetcher{store: s}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found
// or if any error occurs. This implements auth.UserFetcher.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":   1,
		"name":  1,
		"email": 1,
		"plan":  1,
	})
	if err := f.store.c.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		// User not found or DB error
		return nil
	}

	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Plan:  u.Plan,
	}
}
