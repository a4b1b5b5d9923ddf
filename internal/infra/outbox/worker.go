package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
)

// Queue is the durable side of the outbox the worker drains.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// LocalPublisher hands envelopes straight to in-process subscribers when no
// broker is configured.
type LocalPublisher struct {
	Dispatcher *appoutbox.Dispatcher
}

func (p LocalPublisher) Publish(ctx context.Context, _ string, _ string, payload []byte, _ map[string]string) error {
	rec, err := DecodeCloudEvent(payload)
	if err != nil {
		return err
	}
	return p.Dispatcher.Dispatch(ctx, rec)
}

type Worker struct {
	Queue       Queue
	Publisher   Publisher
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger

	now func() time.Time
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Publisher == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger().WarnContext(ctx, "outbox drain failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// Drain publishes every due record and returns how many were handled.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	handled := 0
	for {
		done, err := w.processOnce(ctx)
		if err != nil {
			return handled, err
		}
		if done {
			return handled, nil
		}
		handled++
	}
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Queue.Claim(ctx, w.ID)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return true, nil
	}
	payload, err := EncodeCloudEvent(doc.Record(), w.Source)
	if err != nil {
		return false, w.fail(ctx, doc, err)
	}
	headers := map[string]string{"content-type": ContentType}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	if err := w.Publisher.Publish(ctx, TopicFor(w.TopicPrefix, doc.Name), doc.Aggregate, payload, headers); err != nil {
		return false, w.fail(ctx, doc, err)
	}
	return false, w.Queue.MarkSent(ctx, doc.ID)
}

func (w *Worker) fail(ctx context.Context, doc *EventDocument, cause error) error {
	w.logger().WarnContext(ctx, "outbox publish failed", "event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "error", cause)
	return w.Queue.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), cause.Error())
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := time.Now()
	if w.now != nil {
		now = w.now()
	}
	if attempts < len(w.Backoff) {
		return now.Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return now.Add(w.Backoff[len(w.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
