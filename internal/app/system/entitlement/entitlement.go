// internal/app/system/entitlement/entitlement.go

// Package entitlement enforces plan-tier limits: the free-plan task ceiling
// and the paid-only editor share grant. Plan state itself lives on the user
// document and is flipped by userstore.MarkPaid after a verified payment.
package entitlement

import (
	"context"
	"errors"
	"fmt"

	taskstore "github.com/dalemusser/taskhive/internal/app/store/tasks"
	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/domain/models"
)

// FreeTaskLimit is the number of tasks a free-plan user may own.
const FreeTaskLimit = 3

var (
	// ErrQuotaExceeded is returned when a free user is at their owned-task
	// ceiling.
	ErrQuotaExceeded = errors.New("free plan task limit reached")
	// ErrUpgradeRequired is returned when a free user requests a paid
	// feature (granting editor access).
	ErrUpgradeRequired = errors.New("upgrade required for editor sharing")
)

// Gate answers entitlement questions for a user.
type Gate struct {
	tasks *taskstore.Store
}

// NewGate creates an entitlement Gate over the task store.
func NewGate(tasks *taskstore.Store) *Gate {
	return &Gate{tasks: tasks}
}

// CheckCreateQuota allows the create when the user is on the paid plan or
// owns fewer than FreeTaskLimit tasks.
//
// The count-then-insert sequence is not atomic against concurrent creates
// by the same user: two simultaneous requests can both pass the check and
// leave a free user one task over the ceiling. That bound is accepted by
// design rather than masked; the ceiling is a product nudge, not a
// correctness invariant.
func (g *Gate) CheckCreateQuota(ctx context.Context, user models.User) error {
	if user.IsPaid() {
		return nil
	}

	n, err := g.tasks.CountOwned(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("count owned tasks: %w", err)
	}
	if n >= FreeTaskLimit {
		return ErrQuotaExceeded
	}
	return nil
}

// CheckShareRole gates the requested share role by plan: granting editor
// access is a paid feature; viewer shares are free for everyone. Role
// validity itself is the sharing mutator's concern.
func CheckShareRole(user models.User, role string) error {
	if normalize.ShareRole(role) == models.ShareRoleEditor && !user.IsPaid() {
		return ErrUpgradeRequired
	}
	return nil
}
