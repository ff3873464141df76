package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// AuditService records explicit before/after snapshots of mutations.
// Record joins the caller's transaction when ctx carries one.
type AuditService interface {
	Record(ctx context.Context, actorID int64, action, modelType string, modelID int64, oldValue, newValue interface{}) error
	History(ctx context.Context, modelType string, modelID int64) ([]*entity.AuditLog, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditRepository, logger Logger) AuditService {
	return &auditServiceImpl{auditRepo: auditRepo, logger: logger}
}

func (s *auditServiceImpl) Record(ctx context.Context, actorID int64, action, modelType string, modelID int64, oldValue, newValue interface{}) error {
	oldJSON, err := snapshot(oldValue)
	if err != nil {
		return fmt.Errorf("encode old values: %w", err)
	}
	newJSON, err := snapshot(newValue)
	if err != nil {
		return fmt.Errorf("encode new values: %w", err)
	}

	meta := RequestMetaFrom(ctx)
	entry := &entity.AuditLog{
		Action:    action,
		ModelType: modelType,
		ModelID:   modelID,
		OldValues: oldJSON,
		NewValues: newJSON,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now(),
	}
	if actorID > 0 {
		entry.UserID = &actorID
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to write audit log", "error", err, "action", action, "model_id", modelID)
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (s *auditServiceImpl) History(ctx context.Context, modelType string, modelID int64) ([]*entity.AuditLog, error) {
	logs, err := s.auditRepo.ListByModel(ctx, modelType, modelID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

func snapshot(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
