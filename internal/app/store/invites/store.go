// internal/app/store/invites/store.go

// Package invitestore manages the invitation ledger: pending invitees and
// their single-use registration tokens.
package invitestore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TokenLength is the invite token size in bytes (20 bytes = 160 bits of
// entropy, 40 hex chars).
const TokenLength = 20

var (
	// ErrInvalidToken is returned for tokens that are absent, malformed, or
	// already consumed. The three cases are deliberately indistinguishable so
	// the endpoint cannot be used as a token-existence oracle.
	ErrInvalidToken = errors.New("invalid or expired invite token")
	// ErrDuplicateInvite is returned when the email already has an invitee
	// record.
	ErrDuplicateInvite = errors.New("email already invited")
	// ErrInvalidInput is returned when name or email is empty after
	// normalization.
	ErrInvalidInput = errors.New("invitee name and email are required")
)

// Store manages the people collection.
type Store struct {
	c *mongo.Collection
}

// New creates an invite Store backed by the given database.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("people")}
}

// Issue creates a Person record for the invitee with a fresh single-use
// token and returns the token. The unique index on email makes re-inviting
// an existing invitee a conflict (ErrDuplicateInvite).
func (s *Store) Issue(ctx context.Context, inviterEmail, name, email string) (string, error) {
	name = normalize.Name(name)
	email = normalize.Email(email)
	if name == "" || email == "" {
		return "", ErrInvalidInput
	}

	token := generateToken()

	p := models.Person{
		Name:        name,
		NameCI:      text.Fold(name),
		Email:       email,
		InviteToken: token,
		InvitedBy:   normalize.Email(inviterEmail),
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return "", ErrDuplicateInvite
		}
		return "", fmt.Errorf("insert person: %w", err)
	}
	return token, nil
}

// FindByToken looks up the pending invitee for a token without consuming
// it. Used to pre-fill the registration form.
func (s *Store) FindByToken(ctx context.Context, token string) (models.Person, error) {
	if token == "" {
		return models.Person{}, ErrInvalidToken
	}

	var p models.Person
	err := s.c.FindOne(ctx, bson.M{"invite_token": token}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Person{}, ErrInvalidToken
		}
		return models.Person{}, fmt.Errorf("find invite: %w", err)
	}
	return p, nil
}

// Consume atomically clears the token on the matching Person and returns
// the record. FindOneAndUpdate matches and mutates in one step, so with any
// number of concurrent redemption attempts exactly one caller gets the
// Person back; every other caller sees ErrInvalidToken.
func (s *Store) Consume(ctx context.Context, token string) (models.Person, error) {
	if token == "" {
		return models.Person{}, ErrInvalidToken
	}

	var p models.Person
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"invite_token": token},
		bson.M{"$unset": bson.M{"invite_token": ""}},
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Person{}, ErrInvalidToken
		}
		return models.Person{}, fmt.Errorf("consume invite: %w", err)
	}
	return p, nil
}

// List returns all invitee records, pending and redeemed.
func (s *Store) List(ctx context.Context) ([]models.Person, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer cur.Close(ctx)

	var people []models.Person
	if err := cur.All(ctx, &people); err != nil {
		return nil, fmt.Errorf("decode people: %w", err)
	}
	return people, nil
}

// generateToken generates a random invite token.
// Panics if the system's cryptographic random number generator fails.
func generateToken() string {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
