// internal/app/system/authz/authz.go

// Package authz extracts the authenticated actor from the request context.
// Every core operation takes the actor identity (normalized email) as an
// explicit argument; this package is the single place that reads it out of
// the ambient session state set by the auth middleware.
package authz

import (
	"net/http"

	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the actor's normalized email, display name, Mongo ObjectID,
// and a found flag. If no user is present in context or the user ID is
// malformed, it returns "", "", NilObjectID, false — callers can trust that
// ok=true means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (email string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed for security.
		return "", "", primitive.NilObjectID, false
	}
	return normalize.Email(user.Email), user.Name, userID, true
}

// Identity returns the actor's normalized email and whether a user is present.
func Identity(r *http.Request) (string, bool) {
	email, _, _, ok := UserCtx(r)
	return email, ok
}

// IsPaid reports whether the current request's user is on the paid plan.
func IsPaid(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.Plan == "paid"
}
