package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskhub/internal/models"
)

func ptr(v int64) *int64 { return &v }

func TestCanTaskViewMatrix(t *testing.T) {
	actors := []models.Actor{
		{ID: 1, Role: RoleAdmin},
		{ID: 2, Role: RoleUser},
		{ID: 3, Role: RoleUser},
		{ID: 4, Role: RoleUser},
	}
	refs := []TaskRef{
		{CreatedBy: 2},
		{CreatedBy: 2, AssignedTo: ptr(3)},
		{CreatedBy: 3, AssignedTo: ptr(3)},
		{CreatedBy: 1, AssignedTo: ptr(4)},
	}
	for _, a := range actors {
		for _, r := range refs {
			want := a.Role == RoleAdmin || a.ID == r.CreatedBy || (r.AssignedTo != nil && *r.AssignedTo == a.ID)
			for _, act := range []Action{ActionViewTask, ActionUpdateTask, ActionUpdateTaskStatus} {
				assert.Equal(t, want, CanTask(a, act, r), "actor=%d action=%s ref=%+v", a.ID, act, r)
			}
		}
	}
}

func TestCanTaskDeleteAndAssign(t *testing.T) {
	ref := TaskRef{CreatedBy: 3, AssignedTo: ptr(5)}

	assert.True(t, CanTask(models.Actor{ID: 3, Role: RoleUser}, ActionDeleteTask, ref))
	assert.False(t, CanTask(models.Actor{ID: 5, Role: RoleUser}, ActionDeleteTask, ref), "assignee may not delete")
	assert.True(t, CanTask(models.Actor{ID: 9, Role: RoleAdmin}, ActionDeleteTask, ref))

	assert.False(t, CanTask(models.Actor{ID: 3, Role: RoleUser}, ActionAssignTask, ref), "creator may not assign")
	assert.True(t, CanTask(models.Actor{ID: 9, Role: RoleAdmin}, ActionAssignTask, ref))
}

func TestCanTaskAnonymous(t *testing.T) {
	ref := TaskRef{CreatedBy: 0}
	assert.False(t, CanTask(models.Actor{}, ActionViewTask, ref))
}

func TestCanTaskUnassignedDoesNotMatchZero(t *testing.T) {
	a := models.Actor{ID: 5, Role: RoleUser}
	assert.False(t, CanTask(a, ActionUpdateTask, TaskRef{CreatedBy: 3}))
}

func TestCanAccountSelfProtection(t *testing.T) {
	admin := models.Actor{ID: 1, Role: RoleAdmin}
	for _, act := range []Action{ActionDeleteAccount, ActionDeactivateAccount, ActionToggleAccount} {
		assert.False(t, CanAccount(admin, act, 1), "admin must not %s self", act)
		assert.True(t, CanAccount(admin, act, 2))
	}
}

func TestCanAccountProfile(t *testing.T) {
	user := models.Actor{ID: 7, Role: RoleUser}
	assert.True(t, CanAccount(user, ActionViewAccount, 7))
	assert.True(t, CanAccount(user, ActionUpdateAccount, 7))
	assert.False(t, CanAccount(user, ActionViewAccount, 8))
	assert.False(t, CanAccount(user, ActionUpdateAccount, 8))
	assert.False(t, CanAccount(user, ActionToggleAccount, 8))
	assert.False(t, CanAccount(user, ActionDeleteAccount, 7))

	admin := models.Actor{ID: 1, Role: RoleAdmin}
	assert.True(t, CanAccount(admin, ActionViewAccount, 8))
	assert.True(t, CanAccount(admin, ActionUpdateAccount, 1))
}
