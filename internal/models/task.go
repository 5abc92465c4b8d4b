// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p TaskPriority) Valid() bool {
	for _, v := range TaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Task represents the structure of a task in the system.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	CreatedBy   int64        `json:"created_by"`
	AssignedTo  *int64       `json:"assigned_to"`
	DueDate     *time.Time   `json:"due_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at"`

	CreatorName   *string `json:"creator_name,omitempty"`
	CreatorEmail  *string `json:"creator_email,omitempty"`
	AssigneeName  *string `json:"assignee_name,omitempty"`
	AssigneeEmail *string `json:"assignee_email,omitempty"`
}

// ApplyStatus sets the status and keeps CompletedAt consistent with it.
func (t *Task) ApplyStatus(s TaskStatus, now time.Time) {
	if s == StatusCompleted {
		if t.Status != StatusCompleted || t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
	} else {
		t.CompletedAt = nil
	}
	t.Status = s
}

// NewTask is the input of a create.
type NewTask struct {
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	AssignedTo  *int64       `json:"assigned_to"`
	DueDate     *string      `json:"due_date"`
}

// TaskPatch is a partial update; only fields with Set are applied.
type TaskPatch struct {
	Title       Optional[string]       `json:"title"`
	Description Optional[*string]      `json:"description"`
	Status      Optional[TaskStatus]   `json:"status"`
	Priority    Optional[TaskPriority] `json:"priority"`
	AssignedTo  Optional[*int64]       `json:"assigned_to"`
	DueDate     Optional[*string]      `json:"due_date"`
}

func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set &&
		!p.Priority.Set && !p.AssignedTo.Set && !p.DueDate.Set
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	Status      *TaskStatus
	Priority    *TaskPriority
	AssignedTo  *int64
	CreatedBy   *int64
	Search      string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	SortBy      string
	SortOrder   string
	Page        int
	Limit       int
}

type TaskRelation string

const (
	RelationAll      TaskRelation = "all"
	RelationCreated  TaskRelation = "created"
	RelationAssigned TaskRelation = "assigned"
)

// MyTasksFilter scopes a listing to one account's tasks.
type MyTasksFilter struct {
	UserID   int64
	Relation TaskRelation
	Status   *TaskStatus
	Priority *TaskPriority
	Page     int
	Limit    int
}

type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

type CountByStatus struct {
	Status TaskStatus `json:"status" db:"status"`
	Count  int        `json:"count" db:"count"`
}

type CountByPriority struct {
	Priority TaskPriority `json:"priority" db:"priority"`
	Count    int          `json:"count" db:"count"`
}

type TaskStatistics struct {
	Status   []CountByStatus   `json:"status"`
	Priority []CountByPriority `json:"priority"`
	Overdue  int               `json:"overdue"`
}
