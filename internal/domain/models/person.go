// internal/domain/models/person.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Person is an invitee record created when an existing user sends an
// invitation. While InviteToken is set, exactly one unredeemed invitation
// exists for this person; registering with the token unsets it atomically,
// so the token can never be redeemed twice.
type Person struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Email       string             `bson:"email" json:"email"` // normalized, unique
	InviteToken string             `bson:"invite_token,omitempty" json:"-"`
	InvitedBy   string             `bson:"invited_by,omitempty" json:"invited_by,omitempty"` // inviter's email

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
