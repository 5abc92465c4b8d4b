// internal/services/task_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"taskhub/internal/apperrors"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// TaskService owns task CRUD and the status/assignment state machine. Every
// mutation is checked against the access policy before it is written.
type TaskService interface {
	Create(ctx context.Context, actor models.Actor, in models.NewTask) (*models.Task, error)
	Get(ctx context.Context, actor models.Actor, id int64) (*models.Task, error)
	List(ctx context.Context, actor models.Actor, filter models.TaskFilter) (*models.TaskPage, error)
	ListMine(ctx context.Context, actor models.Actor, filter models.MyTasksFilter) (*models.TaskPage, error)
	Update(ctx context.Context, actor models.Actor, id int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
	SetStatus(ctx context.Context, actor models.Actor, id int64, status models.TaskStatus) (*models.Task, error)
	Assign(ctx context.Context, actor models.Actor, id int64, assigneeID *int64) (*models.Task, error)
	// Statistics is global when userID is nil.
	Statistics(ctx context.Context, userID *int64) (*models.TaskStatistics, error)
}

type taskService struct {
	tasks  repositories.TaskRepository
	users  repositories.UserRepository
	notify Notifier
	now    func() time.Time
}

type TaskOption func(*taskService)

func WithTaskClock(now func() time.Time) TaskOption {
	return func(s *taskService) { s.now = now }
}

func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository, notify Notifier, opts ...TaskOption) TaskService {
	s := &taskService{tasks: tasks, users: users, notify: notify, now: time.Now}
	if s.notify == nil {
		s.notify = noopNotifier{}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type noopNotifier struct{}

func (noopNotifier) Emit(context.Context, int64, string, string) {}

const dateLayout = "2006-01-02"

// parseDueDate accepts a calendar date or an RFC 3339 timestamp. A nil or
// blank value clears the due date.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	return nil, apperrors.Validation("due_date", "must be YYYY-MM-DD or RFC 3339")
}

func requireActor(actor models.Actor) error {
	if actor.IsZero() {
		return apperrors.Auth(apperrors.AuthMissing, nil)
	}
	return nil
}

func (s *taskService) load(ctx context.Context, id int64) (*models.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load task %d: %w", id, err)
	}
	return t, nil
}

// checkAssignee verifies that id names an existing account.
func (s *taskService) checkAssignee(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.users.GetByID(ctx, *id)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.Reference("user", *id)
	}
	return err
}

func (s *taskService) Create(ctx context.Context, actor models.Actor, in models.NewTask) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.Validation("title", "title is required")
	}
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, apperrors.Validation("status", "invalid status")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.Validation("priority", "invalid priority")
	}
	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, in.AssignedTo); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		CreatedBy:   actor.ID,
		AssignedTo:  in.AssignedTo,
		DueDate:     due,
	}
	task.ApplyStatus(status, s.now())

	if err := s.tasks.Store(ctx, task); err != nil {
		return nil, err
	}
	s.notify.Emit(ctx, actor.ID, models.NotificationTaskCreated,
		fmt.Sprintf("Task %q created", task.Title))
	return s.reload(ctx, task), nil
}

// reload re-reads a written task to pick up joined names. The in-memory copy
// is returned when the row has meanwhile disappeared.
func (s *taskService) reload(ctx context.Context, task *models.Task) *models.Task {
	fresh, err := s.tasks.FindByID(ctx, task.ID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("[task][reload][warn] id=%d: %v", task.ID, err)
		}
		return task
	}
	return fresh
}

func (s *taskService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanTask(actor, authz.ActionViewTask, authz.RefOf(task)) {
		return nil, apperrors.Forbidden("you do not have access to this task")
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, actor models.Actor, filter models.TaskFilter) (*models.TaskPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.Validation("status", "invalid status")
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, apperrors.Validation("priority", "invalid priority")
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	tasks, total, err := s.tasks.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.TaskPage{Tasks: tasks, Pagination: models.NewPagination(filter.Page, filter.Limit, total)}, nil
}

func (s *taskService) ListMine(ctx context.Context, actor models.Actor, filter models.MyTasksFilter) (*models.TaskPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter.UserID = actor.ID
	switch filter.Relation {
	case models.RelationCreated, models.RelationAssigned:
	default:
		filter.Relation = models.RelationAll
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.Validation("status", "invalid status")
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, apperrors.Validation("priority", "invalid priority")
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	tasks, total, err := s.tasks.FindByUser(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.TaskPage{Tasks: tasks, Pagination: models.NewPagination(filter.Page, filter.Limit, total)}, nil
}

func sameAssignee(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *taskService) Update(ctx context.Context, actor models.Actor, id int64, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := authz.RefOf(task)
	if !authz.CanTask(actor, authz.ActionUpdateTask, ref) {
		log.Printf("[task][update][deny] task=%d actor=%d", id, actor.ID)
		return nil, apperrors.Forbidden("you do not have permission to update this task")
	}
	if patch.Empty() {
		return nil, apperrors.Validation("", "no valid fields to update")
	}
	now := s.now()

	if patch.Title.Set {
		title := strings.TrimSpace(patch.Title.Value)
		if title == "" {
			return nil, apperrors.Validation("title", "title is required")
		}
		task.Title = title
	}
	if patch.Description.Set {
		task.Description = patch.Description.Value
	}
	if patch.Priority.Set {
		if !patch.Priority.Value.Valid() {
			return nil, apperrors.Validation("priority", "invalid priority")
		}
		task.Priority = patch.Priority.Value
	}
	if patch.Status.Set {
		if !patch.Status.Value.Valid() {
			return nil, apperrors.Validation("status", "invalid status")
		}
		task.ApplyStatus(patch.Status.Value, now)
	}
	if patch.AssignedTo.Set && !sameAssignee(task.AssignedTo, patch.AssignedTo.Value) {
		if !authz.CanTask(actor, authz.ActionAssignTask, ref) {
			return nil, apperrors.Forbidden("only administrators can reassign tasks")
		}
		if err := s.checkAssignee(ctx, patch.AssignedTo.Value); err != nil {
			return nil, err
		}
		task.AssignedTo = patch.AssignedTo.Value
		task.AssigneeName, task.AssigneeEmail = nil, nil
	}
	if patch.DueDate.Set {
		due, err := parseDueDate(patch.DueDate.Value)
		if err != nil {
			return nil, err
		}
		if due != nil && dueInPast(*due, now) {
			return nil, apperrors.Validation("due_date", "due date cannot be in the past")
		}
		task.DueDate = due
	}

	if err := s.write(ctx, task); err != nil {
		return nil, err
	}
	s.notify.Emit(ctx, actor.ID, models.NotificationTaskUpdated,
		fmt.Sprintf("Task %q updated by %s", task.Title, actor.DisplayName))
	return s.reload(ctx, task), nil
}

// dueInPast reports whether due is strictly earlier than now. A calendar
// date is midnight UTC, so today's date is already past once the day starts.
func dueInPast(due, now time.Time) bool {
	return due.Before(now)
}

// write persists a loaded task. A row deleted between load and write is not
// an error: the last writer wins.
func (s *taskService) write(ctx context.Context, task *models.Task) error {
	err := s.tasks.Update(ctx, task)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Printf("[task][write][warn] task=%d vanished before update", task.ID)
		return nil
	}
	return err
}

func (s *taskService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanTask(actor, authz.ActionDeleteTask, authz.RefOf(task)) {
		log.Printf("[task][delete][deny] task=%d actor=%d", id, actor.ID)
		return apperrors.Forbidden("only the creator or an administrator can delete this task")
	}
	if err := s.tasks.Delete(ctx, id); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	s.notify.Emit(ctx, actor.ID, models.NotificationTaskDeleted,
		fmt.Sprintf("Task %q deleted by %s", task.Title, actor.DisplayName))
	return nil
}

func (s *taskService) SetStatus(ctx context.Context, actor models.Actor, id int64, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("status", "invalid status")
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanTask(actor, authz.ActionUpdateTaskStatus, authz.RefOf(task)) {
		return nil, apperrors.Forbidden("you do not have permission to update this task")
	}
	task.ApplyStatus(status, s.now())
	if err := s.write(ctx, task); err != nil {
		return nil, err
	}
	s.notify.Emit(ctx, actor.ID, models.NotificationTaskStatus,
		fmt.Sprintf("Task %q moved to %s by %s", task.Title, status, actor.DisplayName))
	return s.reload(ctx, task), nil
}

func (s *taskService) Assign(ctx context.Context, actor models.Actor, id int64, assigneeID *int64) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanTask(actor, authz.ActionAssignTask, authz.RefOf(task)) {
		return nil, apperrors.Forbidden("only administrators can assign tasks")
	}
	if err := s.checkAssignee(ctx, assigneeID); err != nil {
		return nil, err
	}
	task.AssignedTo = assigneeID
	task.AssigneeName, task.AssigneeEmail = nil, nil
	if err := s.write(ctx, task); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Task %q unassigned by %s", task.Title, actor.DisplayName)
	if assigneeID != nil {
		msg = fmt.Sprintf("Task %q assigned to user #%d by %s", task.Title, *assigneeID, actor.DisplayName)
	}
	s.notify.Emit(ctx, actor.ID, models.NotificationTaskAssigned, msg)
	return s.reload(ctx, task), nil
}

func (s *taskService) Statistics(ctx context.Context, userID *int64) (*models.TaskStatistics, error) {
	return s.tasks.Statistics(ctx, userID)
}
