package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/sqlite"
)

// TagRepository implements port.TagRepository
type TagRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *sql.DB, logger *zap.Logger) port.TagRepository {
	return &TagRepository{
		db:     db,
		logger: logger,
	}
}

const tagSelect = `
	SELECT t.id, t.department_id, d.name, t.description
	FROM tags t JOIN departments d ON d.id = t.department_id`

// GetByIDs returns the tags found among ids keyed by ID. Missing IDs are absent from the map.
func (r *TagRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Tag, error) {
	out := make(map[int64]*entity.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx,
		tagSelect+` WHERE t.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		r.logger.Error("Failed to load tags", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t entity.Tag
		if err := rows.Scan(&t.ID, &t.DepartmentID, &t.DepartmentName, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out[t.ID] = &t
	}
	return out, rows.Err()
}

// List returns every tag ordered by department then description
func (r *TagRepository) List(ctx context.Context) ([]*entity.Tag, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, tagSelect+` ORDER BY d.name, t.description`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Tag, 0)
	for rows.Next() {
		var t entity.Tag
		if err := rows.Scan(&t.ID, &t.DepartmentID, &t.DepartmentName, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// CreateDepartment inserts d, or loads the existing row when the name is taken
func (r *TagRepository) CreateDepartment(ctx context.Context, d *entity.Department) error {
	exec := sqlite.Executor(ctx, r.db)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := exec.ExecContext(ctx,
		`INSERT INTO departments (name, description, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		d.Name, d.Description, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}

	err = exec.QueryRowContext(ctx,
		`SELECT id, description, created_at FROM departments WHERE name = ?`, d.Name,
	).Scan(&d.ID, &d.Description, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to load department: %w", err)
	}
	return nil
}

// Create inserts t under an existing department
func (r *TagRepository) Create(ctx context.Context, t *entity.Tag) error {
	exec := sqlite.Executor(ctx, r.db)
	result, err := exec.ExecContext(ctx,
		`INSERT INTO tags (department_id, description, created_at) VALUES (?, ?, ?)`,
		t.DepartmentID, t.Description, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to create tag", zap.String("description", t.Description), zap.Error(err))
		return fmt.Errorf("failed to create tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	t.ID = id

	if t.DepartmentName == "" {
		if err := exec.QueryRowContext(ctx, `SELECT name FROM departments WHERE id = ?`, t.DepartmentID).
			Scan(&t.DepartmentName); err != nil {
			return fmt.Errorf("failed to load tag department: %w", err)
		}
	}
	return nil
}

var _ port.TagRepository = (*TagRepository)(nil)
