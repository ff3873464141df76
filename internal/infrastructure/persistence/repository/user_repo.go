package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, name, email, roles, departments, lark_open_id, created_at, updated_at`

// Create inserts u. A duplicate email yields port.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	roles, err := toJSON(u.Roles.Slice())
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}
	departments, err := toJSON(u.Departments.Slice())
	if err != nil {
		return fmt.Errorf("failed to encode departments: %w", err)
	}
	slugs, err := toJSON(viewerSlugs(u))
	if err != nil {
		return fmt.Errorf("failed to encode department slugs: %w", err)
	}

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (name, email, roles, departments, department_slugs, lark_open_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, roles, departments, slugs, u.LarkOpenID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return wrapWriteErr("failed to create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := scanUser(sqlite.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListByRole returns every user holding role
func (r *UserRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE EXISTS (SELECT 1 FROM json_each(users.roles) WHERE json_each.value = ?)
		ORDER BY id`, string(role))
	if err != nil {
		r.logger.Error("Failed to list users by role", zap.String("role", string(role)), zap.Error(err))
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u                  entity.User
		roles, departments string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &roles, &departments, &u.LarkOpenID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	var roleNames, deptNames []string
	if err := fromJSON(roles, &roleNames); err != nil {
		return nil, fmt.Errorf("decode roles of user %d: %w", u.ID, err)
	}
	if err := fromJSON(departments, &deptNames); err != nil {
		return nil, fmt.Errorf("decode departments of user %d: %w", u.ID, err)
	}

	set, err := entity.NewRoleSet(roleNames...)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.Roles = set
	u.Departments = entity.NewDepartmentSet(deptNames...)
	return &u, nil
}

// departmentSlugsOf is the slug column value stored alongside a department list
func departmentSlugsOf(departments []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(departments))
	for _, d := range departments {
		s := access.Slug(d)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

var _ port.UserRepository = (*UserRepository)(nil)
