// internal/app/store/tasks/store.go

// Package taskstore manages the tasks collection, including the share-list
// mutations. Every mutation is a single atomic document update, so no
// partial state is ever observable; concurrent title edits by an owner and
// an editor are accepted last-write-wins.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no task matches the given id (and owner,
	// for owner-scoped operations).
	ErrNotFound = errors.New("task not found")
	// ErrInvalidRole is returned when a share role is not editor or viewer.
	ErrInvalidRole = errors.New("role must be editor or viewer")
	// ErrSelfShare is returned when the share target is the task's owner.
	ErrSelfShare = errors.New("cannot share a task with its owner")
	// ErrDuplicateShare is returned when the target already has a share entry.
	ErrDuplicateShare = errors.New("task already shared with this user")
	// ErrNotShared is returned when a role change targets an identity with no
	// share entry.
	ErrNotShared = errors.New("user is not in the shared list")
	// ErrInvalidInput is returned for empty titles or identities.
	ErrInvalidInput = errors.New("title and identity are required")
)

// Store manages the tasks collection.
type Store struct {
	c *mongo.Collection
}

// New creates a task Store backed by the given database.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts a task owned by the given identity with an empty share
// list. Quota enforcement happens in the entitlement gate before this is
// called.
func (s *Store) Create(ctx context.Context, title, owner string) (models.Task, error) {
	title = normalize.Name(title)
	owner = normalize.Email(owner)
	if title == "" || owner == "" {
		return models.Task{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	task := models.Task{
		Title:      title,
		TitleCI:    text.Fold(title),
		Owner:      owner,
		SharedWith: []models.ShareEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res, err := s.c.InsertOne(ctx, task)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	task.ID = res.InsertedID.(primitive.ObjectID)
	return task, nil
}

// ByID fetches a single task.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var task models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

// ListForIdentity returns every task the identity owns or appears in the
// share list of.
func (s *Store) ListForIdentity(ctx context.Context, identity string) ([]models.Task, error) {
	identity = normalize.Email(identity)

	cur, err := s.c.Find(ctx, bson.M{
		"$or": bson.A{
			bson.M{"owner": identity},
			bson.M{"shared_with.email": identity},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

// CountOwned returns the number of tasks the identity owns. The entitlement
// gate uses this for the free-plan quota check.
func (s *Store) CountOwned(ctx context.Context, owner string) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"owner": normalize.Email(owner)})
	if err != nil {
		return 0, fmt.Errorf("count owned tasks: %w", err)
	}
	return n, nil
}

// UpdateTitle replaces the task title. Authorization (owner or editor) is
// the caller's responsibility via taskpolicy; last write wins on
// concurrent edits.
func (s *Store) UpdateTitle(ctx context.Context, id primitive.ObjectID, title string) error {
	title = normalize.Name(title)
	if title == "" {
		return ErrInvalidInput
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"title":      title,
			"title_ci":   text.Fold(title),
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCompleted flips the completion flag.
func (s *Store) SetCompleted(ctx context.Context, id primitive.ObjectID, done bool) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"completed": done, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task. The owner filter is part of the query, so a
// non-owner delete matches nothing and reports ErrNotFound.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, owner string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner": normalize.Email(owner)})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Share-list mutations                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// AddShare appends a share entry for target with the given role.
// Invariants enforced here: the role must be editor or viewer, the target
// can never be the owner, and the target appears at most once. The final
// update is guarded by a $ne filter on the share list so a concurrent
// duplicate add loses the race and reports ErrDuplicateShare.
func (s *Store) AddShare(ctx context.Context, id primitive.ObjectID, target, role string) error {
	target = normalize.Email(target)
	role = normalize.ShareRole(role)

	if role != models.ShareRoleEditor && role != models.ShareRoleViewer {
		return ErrInvalidRole
	}
	if target == "" {
		return ErrInvalidInput
	}

	task, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if task.Owner == target {
		return ErrSelfShare
	}
	for _, entry := range task.SharedWith {
		if entry.Email == target {
			return ErrDuplicateShare
		}
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "shared_with.email": bson.M{"$ne": target}},
		bson.M{
			"$push": bson.M{"shared_with": models.ShareEntry{Email: target, Role: role}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("add share: %w", err)
	}
	if res.MatchedCount == 0 {
		// Lost a race with a concurrent add of the same target.
		return ErrDuplicateShare
	}
	return nil
}

// ChangeShareRole overwrites the role on an existing share entry in place.
func (s *Store) ChangeShareRole(ctx context.Context, id primitive.ObjectID, target, role string) error {
	target = normalize.Email(target)
	role = normalize.ShareRole(role)

	if role != models.ShareRoleEditor && role != models.ShareRoleViewer {
		return ErrInvalidRole
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "shared_with.email": target},
		bson.M{"$set": bson.M{
			"shared_with.$.role": role,
			"updated_at":         time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("change share role: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the task is gone or the target has no entry; distinguish so
		// the caller can report precisely.
		if _, err := s.ByID(ctx, id); err != nil {
			return err
		}
		return ErrNotShared
	}
	return nil
}

// RevokeShare removes the target's share entry. Revoking an identity that
// is not in the list is not an error (idempotent revoke).
func (s *Store) RevokeShare(ctx context.Context, id primitive.ObjectID, target string) error {
	target = normalize.Email(target)

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"shared_with": bson.M{"email": target}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("revoke share: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
