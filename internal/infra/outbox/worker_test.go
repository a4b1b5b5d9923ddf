package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
)

type fakeQueue struct {
	mu     sync.Mutex
	docs   []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (q *fakeQueue) Claim(_ context.Context, _ string) (*EventDocument, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.docs) == 0 {
		return nil, nil
	}
	doc := q.docs[0]
	q.docs = q.docs[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type recordingPublisher struct {
	out []published
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func orderEvent(id string) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       "order.requested",
		Payload:    []byte(`{"orderId":"o-1"}`),
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Aggregate:  "o-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{orderEvent("e-1"), orderEvent("e-2")}}
	pub := &recordingPublisher{}
	w := &Worker{Queue: q, Publisher: pub, TopicPrefix: "dev.", ID: "w-1"}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e-1", "e-2"}, q.sent)
	require.Len(t, pub.out, 2)
	assert.Equal(t, "dev.order.events.v1", pub.out[0].topic)
	assert.Equal(t, "o-1", pub.out[0].key)
	assert.Equal(t, ContentType, pub.out[0].headers["content-type"])

	rec, err := DecodeCloudEvent(pub.out[0].payload)
	require.NoError(t, err)
	assert.Equal(t, "e-1", rec.ID)
	assert.Equal(t, "order.requested", rec.Name)
	assert.JSONEq(t, `{"orderId":"o-1"}`, string(rec.Payload))
	assert.Equal(t, "00-abc-def-01", rec.Headers["traceparent"])
}

func TestWorkerSchedulesRetryOnPublishFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := orderEvent("e-1")
	doc.Attempts = 1
	q := &fakeQueue{docs: []*EventDocument{doc}}
	w := &Worker{
		Queue:     q,
		Publisher: &recordingPublisher{err: errors.New("broker down")},
		Backoff:   []time.Duration{time.Second, 5 * time.Second},
		now:       func() time.Time { return now },
	}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, q.sent)
	assert.Equal(t, now.Add(5*time.Second), q.failed["e-1"])
}

func TestLocalPublisherDispatches(t *testing.T) {
	d := appoutbox.NewDispatcher()
	var got appoutbox.EventRecord
	d.Subscribe("order.requested", appoutbox.SubscriberFunc(func(_ context.Context, rec appoutbox.EventRecord) error {
		got = rec
		return nil
	}))
	q := &fakeQueue{docs: []*EventDocument{orderEvent("e-9")}}
	w := &Worker{Queue: q, Publisher: LocalPublisher{Dispatcher: d}}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "e-9", got.ID)
	assert.Equal(t, "o-1", got.Aggregate)
}

func TestDecodeRejectsIncompleteEnvelope(t *testing.T) {
	_, err := DecodeCloudEvent([]byte(`{"specversion":"1.0","type":"order.requested.v1"}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}
