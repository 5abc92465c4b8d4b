package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"taskhub/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	FindByUser(ctx context.Context, filter models.MyTasksFilter) ([]models.Task, int, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
	Statistics(ctx context.Context, userID *int64) (*models.TaskStatistics, error)
}

type taskRepository struct {
	db *sql.DB
	x  *sqlx.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db, x: sqlx.NewDb(db, "postgres")}
}

// SortColumns is the allow-list of ORDER BY keys.
var SortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"priority":   true,
	"status":     true,
	"title":      true,
}

const taskSelect = `
	SELECT
		t.id, t.title, t.description, t.status, t.priority, t.created_by, t.assigned_to,
		t.due_date, t.created_at, t.updated_at, t.completed_at,
		creator.full_name, creator.email, assignee.full_name, assignee.email
	FROM tasks t
	LEFT JOIN users creator ON t.created_by = creator.id
	LEFT JOIN users assignee ON t.assigned_to = assignee.id`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CreatedBy, &t.AssignedTo,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
		&t.CreatorName, &t.CreatorEmail, &t.AssigneeName, &t.AssigneeEmail,
	)
	return t, err
}

// dateArg sends a DATE as text so the session time zone cannot shift the day.
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (title, description, status, priority, assigned_to, created_by, due_date, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, task.AssignedTo, task.CreatedBy,
		dateArg(task.DueDate), task.CompletedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store task: %w", translate(err))
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *whereBuilder) next() int { return len(w.args) + 1 }

// listClause builds the WHERE conditions and ORDER BY of FindAll. Unknown
// sort keys fall back to created_at and any order other than ASC is DESC.
func listClause(filter models.TaskFilter) (*whereBuilder, string) {
	w := &whereBuilder{}
	if filter.Status != nil {
		w.add("t.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		w.add("t.priority = ?", *filter.Priority)
	}
	if filter.AssignedTo != nil {
		w.add("t.assigned_to = ?", *filter.AssignedTo)
	}
	if filter.CreatedBy != nil {
		w.add("t.created_by = ?", *filter.CreatedBy)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		w.add("(t.title ILIKE ? OR t.description ILIKE ?)", "%"+s+"%")
	}
	if filter.DueDateFrom != nil {
		w.add("t.due_date >= ?::date", dateArg(filter.DueDateFrom))
	}
	if filter.DueDateTo != nil {
		w.add("t.due_date <= ?::date", dateArg(filter.DueDateTo))
	}

	sortCol := filter.SortBy
	if !SortColumns[sortCol] {
		sortCol = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(filter.SortOrder, "ASC") {
		dir = "ASC"
	}
	return w, fmt.Sprintf(" ORDER BY t.%s %s, t.id %s", sortCol, dir, dir)
}

// relationClause builds the WHERE conditions of FindByUser; an unknown
// relation means created or assigned.
func relationClause(filter models.MyTasksFilter) *whereBuilder {
	w := &whereBuilder{}
	switch filter.Relation {
	case models.RelationCreated:
		w.add("t.created_by = ?", filter.UserID)
	case models.RelationAssigned:
		w.add("t.assigned_to = ?", filter.UserID)
	default:
		w.add("(t.created_by = ? OR t.assigned_to = ?)", filter.UserID)
	}
	if filter.Status != nil {
		w.add("t.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		w.add("t.priority = ?", *filter.Priority)
	}
	return w
}

const relationOrder = " ORDER BY t.created_at DESC, t.id DESC"

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	w, order := listClause(filter)
	return r.page(ctx, w, order, filter.Page, filter.Limit)
}

func (r *taskRepository) FindByUser(ctx context.Context, filter models.MyTasksFilter) ([]models.Task, int, error) {
	return r.page(ctx, relationClause(filter), relationOrder, filter.Page, filter.Limit)
}

func (r *taskRepository) page(ctx context.Context, w *whereBuilder, order string, page, limit int) ([]models.Task, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	offset, ok := pageOffset(page, limit, total)
	if !ok {
		return []models.Task{}, total, nil
	}

	n := w.next()
	q := taskSelect + w.sql() + order + fmt.Sprintf(" LIMIT $%d OFFSET $%d", n, n+1)
	args := append(append([]any{}, w.args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			title=$1, description=$2, status=$3, priority=$4, assigned_to=$5,
			due_date=$6::date, completed_at=$7, updated_at=NOW()
		WHERE id=$8
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, task.AssignedTo,
		dateArg(task.DueDate), task.CompletedAt, task.ID,
	).Scan(&task.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *taskRepository) Statistics(ctx context.Context, userID *int64) (*models.TaskStatistics, error) {
	scope := ""
	args := []any{}
	if userID != nil {
		scope = " AND (created_by = $1 OR assigned_to = $1)"
		args = append(args, *userID)
	}

	stats := &models.TaskStatistics{
		Status:   []models.CountByStatus{},
		Priority: []models.CountByPriority{},
	}
	if err := r.x.SelectContext(ctx, &stats.Status,
		`SELECT status, COUNT(*) AS count FROM tasks WHERE TRUE`+scope+` GROUP BY status ORDER BY status`, args...); err != nil {
		return nil, fmt.Errorf("status stats: %w", err)
	}
	if err := r.x.SelectContext(ctx, &stats.Priority,
		`SELECT priority, COUNT(*) AS count FROM tasks WHERE TRUE`+scope+` GROUP BY priority ORDER BY priority`, args...); err != nil {
		return nil, fmt.Errorf("priority stats: %w", err)
	}
	if err := r.x.GetContext(ctx, &stats.Overdue,
		`SELECT COUNT(*) FROM tasks
		 WHERE due_date < CURRENT_DATE AND status NOT IN ('completed', 'cancelled')`+scope, args...); err != nil {
		return nil, fmt.Errorf("overdue stats: %w", err)
	}
	return stats, nil
}
