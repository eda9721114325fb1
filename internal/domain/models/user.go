// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan tiers. A user starts on the free plan and moves to paid exactly
// once, when a verified payment is applied. There is no downgrade path.
const (
	PlanFree = "free"
	PlanPaid = "paid"
)

// User is a registered account. Email is the canonical identity for the
// whole system: it is stored lowercased and trimmed, and every ownership,
// share-entry, and invite comparison uses that normalized form.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`     // normalized, unique
	PasswordHash string             `bson:"password_hash" json:"-"`
	Plan         string             `bson:"plan" json:"plan"` // free | paid

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPaid reports whether the user is on the paid plan.
func (u User) IsPaid() bool { return u.Plan == PlanPaid }
