package lark

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/event"
)

// NotificationHandlerName is the dispatcher registration name of the DM handler
const NotificationHandlerName = "lark-notification-dm"

// FormatNotification renders a stored notification as a chat message
func FormatNotification(evt *event.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[PR %d] %s", evt.GetPayloadInt("series_no"), evt.GetPayloadString("title"))

	if s := evt.GetPayloadString("pr_status"); s != "" {
		fmt.Fprintf(&b, "\nPR status: %s", s)
	}
	if s := evt.GetPayloadString("po_status"); s != "" {
		fmt.Fprintf(&b, "\nPO status: %s", s)
	}
	if po, ok := evt.Payload["po_no"].(*string); ok && po != nil {
		fmt.Fprintf(&b, "\nPO no: %s", *po)
	}
	if s := evt.GetPayloadString("created_by"); s != "" {
		fmt.Fprintf(&b, "\nRequested by: %s", s)
	}
	return b.String()
}

// NotificationHandler sends a direct message for every stored notification
// whose recipient has a Lark open ID
func NotificationHandler(sender port.MessageSender, logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		openID := evt.GetPayloadString("lark_open_id")
		if openID == "" {
			return nil
		}
		if err := sender.SendText(ctx, openID, FormatNotification(evt)); err != nil {
			return fmt.Errorf("send lark message to user %d: %w", evt.UserID, err)
		}
		logger.Debug("Notification delivered to Lark",
			zap.Int64("user_id", evt.UserID),
			zap.Int64("report_id", evt.ReportID))
		return nil
	}
}

// Subscribe registers the DM handler on d
func Subscribe(d dispatcher.Dispatcher, sender port.MessageSender, logger *zap.Logger) {
	d.SubscribeNamed(event.TypeNotificationCreated, NotificationHandlerName,
		"Send new notifications as Lark direct messages", NotificationHandler(sender, logger))
}
