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

// AuditRepository implements port.AuditRepository
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, action, model_type, model_id, old_values, new_values, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt(log.UserID), log.Action, log.ModelType, log.ModelID,
		nullIfEmpty(log.OldValues), nullIfEmpty(log.NewValues),
		log.IPAddress, log.UserAgent, log.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create audit log",
			zap.String("action", log.Action),
			zap.String("model_type", log.ModelType),
			zap.Int64("model_id", log.ModelID),
			zap.Error(err))
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	log.ID = id
	return nil
}

// ListByModel returns the audit trail of one record, oldest first
func (r *AuditRepository) ListByModel(ctx context.Context, modelType string, modelID int64) ([]*entity.AuditLog, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, `
		SELECT id, user_id, action, model_type, model_id, old_values, new_values, ip_address, user_agent, created_at
		FROM audit_logs WHERE model_type = ? AND model_id = ? ORDER BY id`, modelType, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.AuditLog, 0)
	for rows.Next() {
		var (
			l                    entity.AuditLog
			userID               sql.NullInt64
			oldValues, newValues sql.NullString
		)
		if err := rows.Scan(&l.ID, &userID, &l.Action, &l.ModelType, &l.ModelID,
			&oldValues, &newValues, &l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		l.UserID = intPtr(userID)
		l.OldValues = oldValues.String
		l.NewValues = newValues.String
		out = append(out, &l)
	}
	return out, rows.Err()
}

var _ port.AuditRepository = (*AuditRepository)(nil)
