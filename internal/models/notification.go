package models

import "time"

const (
	NotificationTaskCreated  = "task"
	NotificationTaskUpdated  = "task_update"
	NotificationTaskDeleted  = "task_delete"
	NotificationTaskStatus   = "task_status"
	NotificationTaskAssigned = "task_assign"
	NotificationPurge        = "Delete Records"
)

type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
