package port

import (
	"context"
	"time"

	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// MessageSender delivers a plain text chat message to a user
type MessageSender interface {
	SendText(ctx context.Context, openID string, text string) error
}

// Cache is a byte-valued cache with a coarse flush
type Cache interface {
	// Get returns ok=false on a miss
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// InvalidateAll drops every entry written so far
	InvalidateAll(ctx context.Context) error
}

// ReportExporter renders reports as a spreadsheet
type ReportExporter interface {
	Export(reports []*entity.PurchaseReport) ([]byte, error)
}
