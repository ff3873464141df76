package dispatcher

import (
	"context"

	"github.com/zosarillana/prs-be/internal/domain/event"
)

// Handler consumes a committed domain event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// Observer is told the outcome of every handler run; err is nil on success
type Observer func(evt *event.Event, handlerName string, err error)
