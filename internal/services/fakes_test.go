package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[int64]*models.User{}}
	for _, u := range users {
		cp := *u
		cp.Email = repositories.NormalizeEmail(cp.Email)
		r.users[cp.ID] = &cp
		if cp.ID > r.nextID {
			r.nextID = cp.ID
		}
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = repositories.NormalizeEmail(u.Email)
	for _, x := range r.users {
		if x.Email == u.Email {
			return apperrors.Conflict("duplicate entry")
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = repositories.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, f models.UserFilter) ([]*models.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []*models.User{}
	for _, u := range r.users {
		if f.Search == "" || strings.Contains(u.FullName, f.Search) || strings.Contains(u.Email, f.Search) {
			cp := *u
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, f.Page, f.Limit), len(all), nil
}

func window[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.users[u.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	cp := *u
	cp.PasswordHash = old.PasswordHash
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.IsActive = false
	return nil
}

func (r *fakeUserRepo) ToggleActive(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	u.IsActive = !u.IsActive
	return u.IsActive, nil
}

func (r *fakeUserRepo) HardDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = repositories.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) hash(id int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].PasswordHash
}

type fakeTaskRepo struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*models.Task
}

func newFakeTaskRepo(tasks ...models.Task) *fakeTaskRepo {
	r := &fakeTaskRepo{tasks: map[int64]*models.Task{}}
	for i := range tasks {
		t := tasks[i]
		r.tasks[t.ID] = &t
		if t.ID > r.nextID {
			r.nextID = t.ID
		}
	}
	return r
}

func (r *fakeTaskRepo) Store(_ context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func eqPtr(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

func (r *fakeTaskRepo) sorted() []models.Task {
	all := make([]models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all
}

func (r *fakeTaskRepo) FindAll(_ context.Context, f models.TaskFilter) ([]models.Task, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Task{}
	for _, t := range r.sorted() {
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.AssignedTo != nil && !eqPtr(t.AssignedTo, f.AssignedTo) {
			continue
		}
		if f.CreatedBy != nil && t.CreatedBy != *f.CreatedBy {
			continue
		}
		if f.Search != "" && !strings.Contains(t.Title, f.Search) {
			continue
		}
		out = append(out, t)
	}
	return window(out, f.Page, f.Limit), len(out), nil
}

func (r *fakeTaskRepo) FindByUser(_ context.Context, f models.MyTasksFilter) ([]models.Task, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Task{}
	for _, t := range r.sorted() {
		created := t.CreatedBy == f.UserID
		assigned := eqPtr(t.AssignedTo, &f.UserID)
		switch f.Relation {
		case models.RelationCreated:
			if !created {
				continue
			}
		case models.RelationAssigned:
			if !assigned {
				continue
			}
		default:
			if !created && !assigned {
				continue
			}
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		out = append(out, t)
	}
	return window(out, f.Page, f.Limit), len(out), nil
}

func (r *fakeTaskRepo) Update(_ context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return repositories.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) Statistics(_ context.Context, userID *int64) (*models.TaskStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.TaskStatistics{Status: []models.CountByStatus{}, Priority: []models.CountByPriority{}}
	byStatus := map[models.TaskStatus]int{}
	for _, t := range r.tasks {
		if userID != nil && t.CreatedBy != *userID && !eqPtr(t.AssignedTo, userID) {
			continue
		}
		byStatus[t.Status]++
	}
	for _, s := range models.TaskStatuses {
		if n := byStatus[s]; n > 0 {
			stats.Status = append(stats.Status, models.CountByStatus{Status: s, Count: n})
		}
	}
	return stats, nil
}

type emitted struct {
	UserID  int64
	Kind    string
	Message string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []emitted
}

func (n *fakeNotifier) Emit(_ context.Context, userID int64, kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, emitted{userID, kind, message})
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []string{}
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeEmail struct {
	mu      sync.Mutex
	welcome []string
	logins  []string
	resets  map[string]string
}

func (e *fakeEmail) SendLoginEmail(email, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logins = append(e.logins, email)
	return nil
}

func (e *fakeEmail) SendWelcomeEmail(email, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.welcome = append(e.welcome, email)
	return nil
}

func (e *fakeEmail) SendPasswordResetEmail(email, token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resets == nil {
		e.resets = map[string]string{}
	}
	e.resets[email] = token
	return nil
}

func (e *fakeEmail) resetToken(email string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets[email]
}

type fakeResetRepo struct {
	mu    sync.Mutex
	users *fakeUserRepo
	fail  error
	used  map[string]bool
}

func (r *fakeResetRepo) Consume(ctx context.Context, tokenID string, userID int64, _ time.Time, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used[tokenID] {
		return apperrors.Conflict("reset token already used")
	}
	if r.fail != nil {
		return r.fail
	}
	if err := r.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if r.used == nil {
		r.used = map[string]bool{}
	}
	r.used[tokenID] = true
	return nil
}

func int64p(v int64) *int64 { return &v }

func strp(s string) *string { return &s }
