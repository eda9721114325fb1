package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given plan.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, plan string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: "$2a$10$fixture-hash-not-a-real-credential",
		Plan:         plan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateFreeUser creates a test user on the free plan.
func (f *Fixtures) CreateFreeUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.PlanFree)
}

// CreatePaidUser creates a test user on the paid plan.
func (f *Fixtures) CreatePaidUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.PlanPaid)
}

// CreateTask creates a task owned by the given identity.
func (f *Fixtures) CreateTask(ctx context.Context, title, owner string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:         primitive.NewObjectID(),
		Title:      title,
		TitleCI:    text.Fold(title),
		Owner:      owner,
		SharedWith: []models.ShareEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateSharedTask creates a task owned by owner and shared with the given
// entries.
func (f *Fixtures) CreateSharedTask(ctx context.Context, title, owner string, shares ...models.ShareEntry) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:         primitive.NewObjectID(),
		Title:      title,
		TitleCI:    text.Fold(title),
		Owner:      owner,
		SharedWith: shares,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create shared test task: %v", err)
	}
	return task
}

// CreatePerson creates an invitee record, optionally with a pending token.
func (f *Fixtures) CreatePerson(ctx context.Context, name, email, token string) models.Person {
	f.t.Helper()

	p := models.Person{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Email:       email,
		InviteToken: token,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := f.db.Collection("people").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test person: %v", err)
	}
	return p
}
