package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcash/mcash-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

const userColumns = `id, name, phone, password_hash, role, status, is_verified, is_approved, created_at, updated_at`

// Repository defines user data access interface
type Repository interface {
	// CreateTx inserts the user inside a caller-owned transaction.
	CreateTx(ctx context.Context, tx *sqlx.Tx, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, int, error)
	UpdateApproval(ctx context.Context, id uuid.UUID, approved bool, status Status) error
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, user *User) error {
	query := `
		INSERT INTO users (id, name, phone, password_hash, role, status, is_verified, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRowxContext(ctx, query,
		user.ID,
		user.Name,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.IsVerified,
		user.IsApproved,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if constraint, ok := database.UniqueViolation(err); ok && constraint == "users_phone_key" {
			return ErrPhoneTaken
		}
		return database.Classify(err, "insert user")
	}

	return nil
}

// GetByID returns user by ID, or nil when absent.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByPhone returns user by phone, or nil when absent.
func (r *repository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, NormalizePhone(phone))
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err, "get user")
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter = filter.normalized()

	where := ` WHERE 1=1`
	args := make([]interface{}, 0, 4)
	idx := 1

	if filter.PendingAgents {
		where += fmt.Sprintf(" AND role = $%d AND is_approved = false", idx)
		args = append(args, RoleAgent)
		idx++
	} else if filter.Role != nil {
		where += fmt.Sprintf(" AND role = $%d", idx)
		args = append(args, *filter.Role)
		idx++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, *filter.Status)
		idx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return nil, 0, database.Classify(err, "count users")
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.Limit, filter.offset())

	users := make([]*User, 0, filter.Limit)
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, database.Classify(err, "list users")
	}

	return users, total, nil
}

func (r *repository) UpdateApproval(ctx context.Context, id uuid.UUID, approved bool, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_approved = $2, status = $3, updated_at = now()
		WHERE id = $1
	`, id, approved, status)
	if err != nil {
		return database.Classify(err, "update approval")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return database.Classify(err, "update approval rows")
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
