// internal/app/store/users/store.go
package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost for hashing passwords.
const BcryptCost = 10

var (
	// ErrNotFound is returned when no user matches the given identity.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidInput is returned when required fields are missing after
	// normalization.
	ErrInvalidInput = errors.New("name, email, and password are required")
)

// Store manages the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a users Store backed by the given database.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create registers a new user on the free plan. The email is normalized
// before insert; uniqueness is enforced by the unique index on email, and a
// duplicate-key error surfaces as ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, name, email, password string) (models.User, error) {
	name = normalize.Name(name)
	email = normalize.Email(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := models.User{
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: string(hash),
		Plan:         models.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := s.c.InsertOne(ctx, u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u, nil
}

// FindByEmail resolves a normalized identity to its user record.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.User{}, ErrNotFound
	}

	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func VerifyPassword(u models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// MarkPaid transitions the user to the paid plan. The transition is one-way
// and idempotent: applying it to an already-paid user is a no-op, not an
// error. Only the payment-verification path calls this, and only after the
// gateway signature has been checked.
func (s *Store) MarkPaid(ctx context.Context, email string) error {
	email = normalize.Email(email)

	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"plan": models.PlanPaid, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
