package broadcast

import (
	"context"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/domain/event"
)

// Handler names registered on the dispatcher
const (
	ReportHandlerName       = "websocket-report-broadcast"
	NotificationHandlerName = "websocket-notification-push"
)

// ReportHandler publishes report changes on the report's channels
func ReportHandler(h *Hub) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		return h.Publish(ctx, ReportChannels(evt), Message{
			Event: EventReportUpdated,
			Data:  evt.Payload,
		})
	}
}

// NotificationHandler pushes a stored notification to its recipient's channel
func NotificationHandler(h *Hub) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if evt.UserID == 0 {
			return nil
		}
		return h.Publish(ctx, []string{UserChannel(evt.UserID)}, Message{
			Event: EventNotification,
			Data:  evt.Payload,
		})
	}
}

// Subscribe registers the hub's handlers on d
func Subscribe(d dispatcher.Dispatcher, h *Hub) {
	d.SubscribeNamed(event.TypeReportUpdated, ReportHandlerName,
		"Broadcast report changes to websocket channels", ReportHandler(h))
	d.SubscribeNamed(event.TypeNotificationCreated, NotificationHandlerName,
		"Push new notifications to the recipient's websocket channel", NotificationHandler(h))
}
