// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Share roles a non-owner can hold on a task.
const (
	ShareRoleEditor = "editor"
	ShareRoleViewer = "viewer"
)

// ShareEntry grants one non-owner identity access to a task.
// The owner never appears in a task's share list, and a given email
// appears at most once.
type ShareEntry struct {
	Email string `bson:"email" json:"email"` // normalized
	Role  string `bson:"role" json:"role"`   // editor | viewer
}

// Task is a shared to-do item. Owner is set at creation and never changes;
// all sharing state lives in SharedWith, which is mutated only through the
// task store's share operations.
type Task struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string             `bson:"title" json:"title"`
	TitleCI    string             `bson:"title_ci" json:"title_ci"`
	Completed  bool               `bson:"completed" json:"completed"`
	Owner      string             `bson:"owner" json:"owner"` // owner's normalized email, immutable
	SharedWith []ShareEntry       `bson:"shared_with" json:"shared_with"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
