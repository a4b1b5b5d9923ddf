package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
)

// noticeEnvelope is the part of every order lifecycle event the projector reads.
type noticeEnvelope struct {
	OrderID string              `json:"orderId"`
	Notice  domainorders.Notice `json:"notice"`
}

// Projector turns order lifecycle events into notification records. Each
// record id is derived from the event id, so a redelivered event stores nothing new.
type Projector struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// EventNames lists the events the projector consumes.
func (p *Projector) EventNames() []string {
	return []string{domainorders.EventOrderRequested, domainorders.EventOrderStatusChanged}
}

// Subscribe registers the projector on d for every consumed event.
func (p *Projector) Subscribe(d *outbox.Dispatcher) {
	for _, name := range p.EventNames() {
		d.Subscribe(name, p)
	}
}

func (p *Projector) HandleEvent(ctx context.Context, record outbox.EventRecord) error {
	var env noticeEnvelope
	if err := json.Unmarshal(record.Payload, &env); err != nil {
		return fmt.Errorf("decode %s: %w", record.Name, err)
	}
	if env.Notice.Recipient == "" {
		return nil
	}
	n, err := domainnotifications.New(domainnotifications.CreateParams{
		ID:        NotificationIDFor(record.ID),
		Recipient: env.Notice.Recipient,
		Sender:    env.Notice.Sender,
		Type:      env.Notice.Type,
		OrderID:   env.OrderID,
		Message:   env.Notice.Message,
		Now:       record.OccurredAt,
	})
	if err != nil {
		return err
	}

	unit, err := p.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := uow.Attach(ctx, unit)
	if err := unit.Notifications().Save(execCtx, n); err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	if p.Logger != nil {
		p.Logger.DebugContext(ctx, "notification stored", "notification_id", n.ID, "recipient", n.Recipient, "type", n.Type)
	}
	return nil
}

func NotificationIDFor(eventID string) domainnotifications.NotificationID {
	return domainnotifications.NotificationID(uuid.NewSHA1(uuid.NameSpaceOID, []byte("notification:"+eventID)).String())
}

var _ outbox.Subscriber = (*Projector)(nil)
