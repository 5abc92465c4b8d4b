package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/apperrors"
	"taskhub/internal/authz"
	"taskhub/internal/models"
)

var (
	user1 = models.Actor{ID: 1, Email: "one@example.com", DisplayName: "One", Role: authz.RoleUser}
	user3 = models.Actor{ID: 3, Email: "three@example.com", DisplayName: "Three", Role: authz.RoleUser}
	user5 = models.Actor{ID: 5, Email: "five@example.com", DisplayName: "Five", Role: authz.RoleUser}
	admin = models.Actor{ID: 9, Email: "admin@example.com", DisplayName: "Admin", Role: authz.RoleAdmin}
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func seededUsers() *fakeUserRepo {
	var users []*models.User
	for _, a := range []models.Actor{user1, user3, user5, admin} {
		users = append(users, &models.User{ID: a.ID, Email: a.Email, FullName: a.DisplayName, Role: a.Role, IsActive: true})
	}
	return newFakeUserRepo(users...)
}

type taskFixture struct {
	svc    TaskService
	tasks  *fakeTaskRepo
	notify *fakeNotifier
	clock  *clock
}

func newTaskFixture(tasks ...models.Task) *taskFixture {
	f := &taskFixture{
		tasks:  newFakeTaskRepo(tasks...),
		notify: &fakeNotifier{},
		clock:  &clock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = NewTaskService(f.tasks, seededUsers(), f.notify, WithTaskClock(f.clock.now))
	return f
}

// task7 is created by user#3 and unassigned.
func task7() models.Task {
	return models.Task{ID: 7, Title: "Review", Status: models.StatusPending, Priority: models.PriorityMedium, CreatedBy: 3}
}

func TestCreateDefaults(t *testing.T) {
	f := newTaskFixture()

	task, err := f.svc.Create(context.Background(), user1, models.NewTask{Title: "Ship release"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, int64(1), task.CreatedBy)
	assert.Equal(t, []string{models.NotificationTaskCreated}, f.notify.kinds())
	assert.Equal(t, int64(1), f.notify.events[0].UserID)
}

func TestCreateValidation(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()

	var verr *apperrors.ValidationError
	_, err := f.svc.Create(ctx, user1, models.NewTask{Title: "   "})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = f.svc.Create(ctx, user1, models.NewTask{Title: "x", Priority: "critical"})
	require.ErrorAs(t, err, &verr)

	_, err = f.svc.Create(ctx, user1, models.NewTask{Title: "x", DueDate: strp("next week")})
	require.ErrorAs(t, err, &verr)

	var rerr *apperrors.ReferenceError
	_, err = f.svc.Create(ctx, user1, models.NewTask{Title: "x", AssignedTo: int64p(999)})
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, int64(999), rerr.ID)

	assert.Empty(t, f.notify.kinds())
}

func TestCreateCompletedStampsCompletedAt(t *testing.T) {
	f := newTaskFixture()
	task, err := f.svc.Create(context.Background(), user1, models.NewTask{Title: "done already", Status: models.StatusCompleted})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, f.clock.t, *task.CompletedAt)
}

func TestCreateRequiresActor(t *testing.T) {
	f := newTaskFixture()
	_, err := f.svc.Create(context.Background(), models.Actor{}, models.NewTask{Title: "x"})
	assert.Equal(t, apperrors.AuthMissing, apperrors.AuthKindOf(err))
}

func TestGetVisibility(t *testing.T) {
	task := task7()
	task.AssignedTo = int64p(1)
	f := newTaskFixture(task)
	ctx := context.Background()

	for _, a := range []models.Actor{admin, user3, user1} {
		_, err := f.svc.Get(ctx, a, 7)
		assert.NoError(t, err, "actor %d", a.ID)
	}

	var ferr *apperrors.ForbiddenError
	_, err := f.svc.Get(ctx, user5, 7)
	assert.ErrorAs(t, err, &ferr)

	var nerr *apperrors.NotFoundError
	_, err = f.svc.Get(ctx, admin, 70)
	assert.ErrorAs(t, err, &nerr)
}

func TestUpdateByStrangerIsForbidden(t *testing.T) {
	f := newTaskFixture(task7())

	var ferr *apperrors.ForbiddenError
	_, err := f.svc.Update(context.Background(), user5, 7, models.TaskPatch{Title: models.Some("hijack")})
	require.ErrorAs(t, err, &ferr)

	stored, _ := f.tasks.FindByID(context.Background(), 7)
	assert.Equal(t, "Review", stored.Title)
	assert.Empty(t, f.notify.kinds())
}

func TestUpdatePartialAbsentVersusNull(t *testing.T) {
	task := task7()
	task.Description = strp("keep me")
	f := newTaskFixture(task)
	ctx := context.Background()

	got, err := f.svc.Update(ctx, user3, 7, models.TaskPatch{Title: models.Some("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "keep me", *got.Description)

	got, err = f.svc.Update(ctx, user3, 7, models.TaskPatch{Description: models.Some[*string](nil)})
	require.NoError(t, err)
	assert.Nil(t, got.Description)
	assert.Equal(t, "Renamed", got.Title)

	assert.Equal(t, []string{models.NotificationTaskUpdated, models.NotificationTaskUpdated}, f.notify.kinds())
	assert.Contains(t, f.notify.events[0].Message, "Three")
}

func TestUpdateEmptyPatch(t *testing.T) {
	f := newTaskFixture(task7())
	var verr *apperrors.ValidationError
	_, err := f.svc.Update(context.Background(), user3, 7, models.TaskPatch{})
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateDueDate(t *testing.T) {
	f := newTaskFixture(task7())
	ctx := context.Background()

	var verr *apperrors.ValidationError
	_, err := f.svc.Update(ctx, user3, 7, models.TaskPatch{DueDate: models.Some(strp("2026-03-09"))})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "due_date", verr.Field)

	_, err = f.svc.Update(ctx, user3, 7, models.TaskPatch{DueDate: models.Some(strp("2026-03-10T11:59:00Z"))})
	require.ErrorAs(t, err, &verr)

	// today's date is midnight, which is already behind the clock
	_, err = f.svc.Update(ctx, user3, 7, models.TaskPatch{DueDate: models.Some(strp("2026-03-10"))})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "due_date", verr.Field)

	got, err := f.svc.Update(ctx, user3, 7, models.TaskPatch{DueDate: models.Some(strp("2026-03-11"))})
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-03-11", got.DueDate.Format(dateLayout))

	_, err = f.svc.Update(ctx, user3, 7, models.TaskPatch{DueDate: models.Some(strp("2026-03-10T12:30:00Z"))})
	require.NoError(t, err)

	got, err = f.svc.Update(ctx, user3, 7, models.TaskPatch{DueDate: models.Some[*string](nil)})
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
}

func TestUpdateAssigneeRequiresAdmin(t *testing.T) {
	f := newTaskFixture(task7())
	ctx := context.Background()

	var ferr *apperrors.ForbiddenError
	_, err := f.svc.Update(ctx, user3, 7, models.TaskPatch{AssignedTo: models.Some(int64p(1))})
	require.ErrorAs(t, err, &ferr)

	// unchanged assignee is not a reassignment
	_, err = f.svc.Update(ctx, user3, 7, models.TaskPatch{AssignedTo: models.Some[*int64](nil), Title: models.Some("t")})
	require.NoError(t, err)

	got, err := f.svc.Update(ctx, admin, 7, models.TaskPatch{AssignedTo: models.Some(int64p(1))})
	require.NoError(t, err)
	assert.Equal(t, int64(1), *got.AssignedTo)

	var rerr *apperrors.ReferenceError
	_, err = f.svc.Update(ctx, admin, 7, models.TaskPatch{AssignedTo: models.Some(int64p(999))})
	assert.ErrorAs(t, err, &rerr)
}

func TestSetStatusCompletedAtIdempotent(t *testing.T) {
	f := newTaskFixture(task7())
	ctx := context.Background()
	first := f.clock.t

	got, err := f.svc.SetStatus(ctx, user3, 7, models.StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, first, *got.CompletedAt)

	f.clock.t = first.Add(time.Hour)
	got, err = f.svc.SetStatus(ctx, user3, 7, models.StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, first, *got.CompletedAt)

	for _, s := range []models.TaskStatus{models.StatusInProgress, models.StatusCancelled, models.StatusPending} {
		got, err = f.svc.SetStatus(ctx, user3, 7, s)
		require.NoError(t, err)
		assert.Equal(t, s, got.Status)
		assert.Nil(t, got.CompletedAt, "status %s", s)
	}
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	f := newTaskFixture(task7())
	var verr *apperrors.ValidationError
	_, err := f.svc.SetStatus(context.Background(), user3, 7, "archived")
	assert.ErrorAs(t, err, &verr)
}

func TestSetStatusViaUpdateClearsCompletedAt(t *testing.T) {
	f := newTaskFixture(task7())
	ctx := context.Background()

	got, err := f.svc.Update(ctx, user3, 7, models.TaskPatch{Status: models.Some(models.StatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)

	got, err = f.svc.Update(ctx, user3, 7, models.TaskPatch{Status: models.Some(models.StatusInProgress)})
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
}

func TestAssign(t *testing.T) {
	f := newTaskFixture(task7())
	ctx := context.Background()

	var rerr *apperrors.ReferenceError
	_, err := f.svc.Assign(ctx, admin, 7, int64p(999))
	require.ErrorAs(t, err, &rerr)

	var ferr *apperrors.ForbiddenError
	_, err = f.svc.Assign(ctx, user3, 7, int64p(1))
	require.ErrorAs(t, err, &ferr)

	got, err := f.svc.Assign(ctx, admin, 7, int64p(5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), *got.AssignedTo)

	got, err = f.svc.Assign(ctx, admin, 7, nil)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)

	assert.Equal(t, []string{models.NotificationTaskAssigned, models.NotificationTaskAssigned}, f.notify.kinds())
	assert.Equal(t, admin.ID, f.notify.events[0].UserID)
}

func TestDelete(t *testing.T) {
	task := task7()
	task.AssignedTo = int64p(5)
	f := newTaskFixture(task)
	ctx := context.Background()

	var ferr *apperrors.ForbiddenError
	require.ErrorAs(t, f.svc.Delete(ctx, user5, 7), &ferr)

	require.NoError(t, f.svc.Delete(ctx, user3, 7))
	_, err := f.tasks.FindByID(ctx, 7)
	assert.Error(t, err)
	assert.Equal(t, []string{models.NotificationTaskDeleted}, f.notify.kinds())

	var nerr *apperrors.NotFoundError
	assert.ErrorAs(t, f.svc.Delete(ctx, user3, 7), &nerr)
}

func TestListPagination(t *testing.T) {
	var tasks []models.Task
	for i := 1; i <= 25; i++ {
		tasks = append(tasks, models.Task{ID: int64(i), Title: fmt.Sprintf("t%d", i), Status: models.StatusPending, Priority: models.PriorityLow, CreatedBy: 1})
	}
	f := newTaskFixture(tasks...)
	ctx := context.Background()

	page, err := f.svc.List(ctx, user1, models.TaskFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 10)
	assert.Equal(t, 25, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)

	page, err = f.svc.List(ctx, user1, models.TaskFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 5)

	page, err = f.svc.List(ctx, user1, models.TaskFilter{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.NotNil(t, page.Tasks)

	page, err = f.svc.List(ctx, user1, models.TaskFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Pagination.Limit)
	assert.Equal(t, 1, page.Pagination.Page)
}

func TestListRejectsBadFilter(t *testing.T) {
	f := newTaskFixture()
	bad := models.TaskStatus("nope")
	var verr *apperrors.ValidationError
	_, err := f.svc.List(context.Background(), user1, models.TaskFilter{Status: &bad})
	assert.ErrorAs(t, err, &verr)
}

func TestListMineRelations(t *testing.T) {
	f := newTaskFixture(
		models.Task{ID: 1, Title: "mine", CreatedBy: 1, Status: models.StatusPending, Priority: models.PriorityLow},
		models.Task{ID: 2, Title: "given", CreatedBy: 3, AssignedTo: int64p(1), Status: models.StatusPending, Priority: models.PriorityLow},
		models.Task{ID: 3, Title: "other", CreatedBy: 3, Status: models.StatusPending, Priority: models.PriorityLow},
	)
	ctx := context.Background()

	count := func(rel models.TaskRelation) int {
		page, err := f.svc.ListMine(ctx, user1, models.MyTasksFilter{Relation: rel})
		require.NoError(t, err)
		return page.Pagination.Total
	}
	assert.Equal(t, 2, count(models.RelationAll))
	assert.Equal(t, 1, count(models.RelationCreated))
	assert.Equal(t, 1, count(models.RelationAssigned))
	assert.Equal(t, 2, count("bogus"))
}

func TestStatisticsScope(t *testing.T) {
	f := newTaskFixture(
		models.Task{ID: 1, CreatedBy: 1, Status: models.StatusPending},
		models.Task{ID: 2, CreatedBy: 3, Status: models.StatusCompleted},
	)
	ctx := context.Background()

	global, err := f.svc.Statistics(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, global.Status, 2)

	mine, err := f.svc.Statistics(ctx, int64p(1))
	require.NoError(t, err)
	require.Len(t, mine.Status, 1)
	assert.Equal(t, models.StatusPending, mine.Status[0].Status)
}

func TestDueInPast(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	day := func(s string) time.Time { d, _ := time.Parse(dateLayout, s); return d }

	assert.True(t, dueInPast(day("2026-03-09"), now))
	assert.True(t, dueInPast(day("2026-03-10"), now))
	assert.False(t, dueInPast(day("2026-03-11"), now))
	assert.True(t, dueInPast(now.Add(-time.Second), now))
	assert.False(t, dueInPast(now, now))
	assert.False(t, dueInPast(now.Add(time.Second), now))
}
