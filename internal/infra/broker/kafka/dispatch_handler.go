package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	infraoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/outbox"
)

// Inbox remembers which events a consumer already processed.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// DispatchHandler decodes CloudEvent messages and feeds them to in-process
// subscribers, skipping events the inbox has already recorded.
type DispatchHandler struct {
	Dispatcher *appoutbox.Dispatcher
	Inbox      Inbox
	Logger     *slog.Logger
}

func (h DispatchHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	rec, err := infraoutbox.DecodeCloudEvent(msg.Value)
	if err != nil {
		// Poison messages are acknowledged so they do not block the partition.
		h.logger().WarnContext(ctx, "dropping undecodable event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("inbox check %s: %w", rec.ID, err)
		}
		if seen {
			h.logger().DebugContext(ctx, "duplicate event skipped", "event_id", rec.ID, "event", rec.Name)
			return nil
		}
	}
	if err := h.Dispatcher.Dispatch(ctx, rec); err != nil {
		if h.Inbox != nil {
			if forgetErr := h.Inbox.Forget(ctx, rec.ID); forgetErr != nil {
				h.logger().WarnContext(ctx, "inbox forget failed", "event_id", rec.ID, "error", forgetErr)
			}
		}
		return err
	}
	return nil
}

func (h DispatchHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
