// Package taskpolicy resolves what an actor may do with a task.
//
// Authorization rules:
//   - The task owner holds every capability.
//   - A share entry grants editor (read + edit title) or viewer (read only).
//   - Everyone else gets nothing.
//
// RoleOf is a pure function of the task's owner field and share list, and
// the capability table below is the single source of truth for what each
// role permits. Handlers must consult it before every mutation and fail
// closed when the capability is absent — no per-handler re-derivation.
package taskpolicy

import (
	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/domain/models"
)

// Role is the permission level an actor holds on a task.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleNone   Role = "none"
)

// Capability is one of the operations the permission table governs.
type Capability int

const (
	CapRead Capability = iota
	CapEditTitle
	CapDelete
	CapManageShares
)

// permissions is the role → capability table.
//
//	role   | read | edit title | delete | manage shares
//	owner  | yes  | yes        | yes    | yes
//	editor | yes  | yes        | no     | no
//	viewer | yes  | no         | no     | no
//	none   | no   | no         | no     | no
var permissions = map[Role]map[Capability]bool{
	RoleOwner:  {CapRead: true, CapEditTitle: true, CapDelete: true, CapManageShares: true},
	RoleEditor: {CapRead: true, CapEditTitle: true},
	RoleViewer: {CapRead: true},
	RoleNone:   {},
}

// RoleOf computes the actor's role on the task. The identity is normalized
// before comparison, matching the normalization applied when the owner and
// share entries were stored.
func RoleOf(task *models.Task, identity string) Role {
	id := normalize.Email(identity)
	if id == "" {
		return RoleNone
	}
	if task.Owner == id {
		return RoleOwner
	}
	for _, entry := range task.SharedWith {
		if entry.Email == id {
			switch entry.Role {
			case models.ShareRoleEditor:
				return RoleEditor
			case models.ShareRoleViewer:
				return RoleViewer
			}
		}
	}
	return RoleNone
}

// Can reports whether the role holds the capability.
func Can(role Role, cap Capability) bool {
	return permissions[role][cap]
}

// ValidShareRole reports whether s (already normalized) is a role that can
// be granted through sharing. "owner" is never grantable.
func ValidShareRole(s string) bool {
	return s == models.ShareRoleEditor || s == models.ShareRoleViewer
}
