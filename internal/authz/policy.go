// Package authz decides whether an actor may perform an action on a task or
// an account. Decisions are pure and are re-evaluated on every call.
package authz

import "taskhub/internal/models"

type Action string

const (
	ActionViewTask         Action = "task:view"
	ActionUpdateTask       Action = "task:update"
	ActionUpdateTaskStatus Action = "task:update_status"
	ActionDeleteTask       Action = "task:delete"
	ActionAssignTask       Action = "task:assign"

	ActionViewAccount       Action = "account:view"
	ActionUpdateAccount     Action = "account:update"
	ActionDeleteAccount     Action = "account:delete"
	ActionDeactivateAccount Action = "account:deactivate"
	ActionToggleAccount     Action = "account:toggle"
)

// TaskRef is the part of a task the policy looks at.
type TaskRef struct {
	CreatedBy  int64
	AssignedTo *int64
}

func RefOf(t *models.Task) TaskRef {
	return TaskRef{CreatedBy: t.CreatedBy, AssignedTo: t.AssignedTo}
}

func (r TaskRef) isCreator(a models.Actor) bool {
	return a.ID != 0 && a.ID == r.CreatedBy
}

func (r TaskRef) isAssignee(a models.Actor) bool {
	return a.ID != 0 && r.AssignedTo != nil && *r.AssignedTo == a.ID
}

// CanTask reports whether a may perform action on the task.
func CanTask(a models.Actor, action Action, t TaskRef) bool {
	if a.IsZero() {
		return false
	}
	admin := IsAdmin(a)
	switch action {
	case ActionViewTask, ActionUpdateTask, ActionUpdateTaskStatus:
		return admin || t.isCreator(a) || t.isAssignee(a)
	case ActionDeleteTask:
		return admin || t.isCreator(a)
	case ActionAssignTask:
		return admin
	}
	return false
}

// CanAccount reports whether a may perform action on the account targetID.
// The self-protection veto is applied after the role check and wins over it.
func CanAccount(a models.Actor, action Action, targetID int64) bool {
	if a.IsZero() {
		return false
	}
	self := a.ID == targetID
	switch action {
	case ActionViewAccount, ActionUpdateAccount:
		return self || IsAdmin(a)
	case ActionDeleteAccount, ActionDeactivateAccount, ActionToggleAccount:
		if !IsAdmin(a) {
			return false
		}
		return !self
	}
	return false
}
