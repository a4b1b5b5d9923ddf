package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/storage/memory"
)

func statusEvent(id, recipient string) outbox.EventRecord {
	return outbox.EventRecord{
		ID:         id,
		Name:       domainorders.EventOrderStatusChanged,
		Payload:    []byte(`{"orderId":"o-1","notice":{"recipient":"` + recipient + `","sender":"owner","type":"order_approved","message":"Your order for Tent has been approved"}}`),
		OccurredAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func listFor(t *testing.T, f uow.UoWFactory, user string) int {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(context.Background())
	items, err := unit.Notifications().ListByRecipient(context.Background(), user)
	require.NoError(t, err)
	return len(items)
}

func TestProjectorStoresOncePerEvent(t *testing.T) {
	f := memory.Factory{Store: memory.NewStore()}
	p := &Projector{UoWFactory: f}

	require.NoError(t, p.HandleEvent(context.Background(), statusEvent("e-1", "renter")))
	require.NoError(t, p.HandleEvent(context.Background(), statusEvent("e-1", "renter")))
	assert.Equal(t, 1, listFor(t, f, "renter"))

	require.NoError(t, p.HandleEvent(context.Background(), statusEvent("e-2", "renter")))
	assert.Equal(t, 2, listFor(t, f, "renter"))
}

func TestProjectorSkipsEventsWithoutRecipient(t *testing.T) {
	f := memory.Factory{Store: memory.NewStore()}
	p := &Projector{UoWFactory: f}
	require.NoError(t, p.HandleEvent(context.Background(), statusEvent("e-1", "")))
	assert.Zero(t, listFor(t, f, ""))
}

func TestProjectorRejectsGarbage(t *testing.T) {
	p := &Projector{UoWFactory: memory.Factory{Store: memory.NewStore()}}
	err := p.HandleEvent(context.Background(), outbox.EventRecord{ID: "e-1", Name: domainorders.EventOrderRequested, Payload: []byte("{")})
	assert.Error(t, err)
}

func TestSubscribeRegistersLifecycleEvents(t *testing.T) {
	d := outbox.NewDispatcher()
	(&Projector{}).Subscribe(d)
	assert.ElementsMatch(t, []string{domainorders.EventOrderRequested, domainorders.EventOrderStatusChanged}, d.Names())
}

func TestNotificationIDIsDeterministic(t *testing.T) {
	assert.Equal(t, NotificationIDFor("e-1"), NotificationIDFor("e-1"))
	assert.NotEqual(t, NotificationIDFor("e-1"), NotificationIDFor("e-2"))
}
