package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	infraoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/outbox"
)

type memInbox struct {
	seen map[string]bool
}

func (i *memInbox) Seen(_ context.Context, id string) (bool, error) {
	if i.seen[id] {
		return true, nil
	}
	i.seen[id] = true
	return false, nil
}

func (i *memInbox) Forget(_ context.Context, id string) error {
	delete(i.seen, id)
	return nil
}

func envelope(t *testing.T, id string) *sarama.ConsumerMessage {
	t.Helper()
	payload, err := infraoutbox.EncodeCloudEvent(appoutbox.EventRecord{
		ID:         id,
		Name:       "order.status_changed",
		Payload:    []byte(`{"orderId":"o-1"}`),
		OccurredAt: time.Now(),
		Aggregate:  "o-1",
	}, "")
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "order.events.v1", Value: payload}
}

func TestDispatchHandlerSkipsDuplicates(t *testing.T) {
	d := appoutbox.NewDispatcher()
	calls := 0
	d.Subscribe("order.status_changed", appoutbox.SubscriberFunc(func(context.Context, appoutbox.EventRecord) error {
		calls++
		return nil
	}))
	h := DispatchHandler{Dispatcher: d, Inbox: &memInbox{seen: map[string]bool{}}}

	msg := envelope(t, "e-1")
	require.NoError(t, h.Handle(context.Background(), msg))
	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, 1, calls)
}

func TestDispatchHandlerForgetsFailedEvents(t *testing.T) {
	d := appoutbox.NewDispatcher()
	fail := true
	d.Subscribe("order.status_changed", appoutbox.SubscriberFunc(func(context.Context, appoutbox.EventRecord) error {
		if fail {
			return errors.New("store down")
		}
		return nil
	}))
	inbox := &memInbox{seen: map[string]bool{}}
	h := DispatchHandler{Dispatcher: d, Inbox: inbox}

	msg := envelope(t, "e-2")
	require.Error(t, h.Handle(context.Background(), msg))
	assert.False(t, inbox.seen["e-2"])

	fail = false
	require.NoError(t, h.Handle(context.Background(), msg))
	assert.True(t, inbox.seen["e-2"])
}

func TestDispatchHandlerAcksPoisonMessages(t *testing.T) {
	h := DispatchHandler{Dispatcher: appoutbox.NewDispatcher()}
	require.NoError(t, h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("not json")}))
}
