package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskhub/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Deactivate(ctx context.Context, id int64) error
	ToggleActive(ctx context.Context, id int64) (bool, error)
	HardDelete(ctx context.Context, id int64) error
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (email, password_hash, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	user.Email = NormalizeEmail(user.Email)
	err := r.db.QueryRowContext(ctx, q,
		user.Email, user.PasswordHash, user.FullName, user.Role, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, NormalizeEmail(email)))
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	where := ""
	args := []any{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = ` WHERE full_name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+s+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	offset, ok := pageOffset(filter.Page, filter.Limit, total)
	if !ok {
		return []*models.User{}, total, nil
	}

	n := len(args)
	q := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		userColumns, where, n+1, n+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	res := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, u)
	}
	return res, total, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users
		SET email=$1, full_name=$2, role=$3, is_active=$4, updated_at=NOW()
		WHERE id=$5
		RETURNING updated_at`
	user.Email = NormalizeEmail(user.Email)
	err := r.db.QueryRowContext(ctx, q,
		user.Email, user.FullName, user.Role, user.IsActive, user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *userRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *userRepository) ToggleActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET is_active = NOT is_active, updated_at=NOW() WHERE id=$1 RETURNING is_active`, id,
	).Scan(&active)
	if err != nil {
		return false, translate(err)
	}
	return active, nil
}

// HardDelete removes the row; tasks created by the account cascade and
// assignments are set to NULL by the schema.
func (r *userRepository) HardDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *userRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = $1 AND id <> $2)`,
		NormalizeEmail(email), excludeID,
	).Scan(&exists)
	return exists, err
}
