package outbox

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
)

const (
	specVersion   = "1.0"
	typeSuffix    = ".v1"
	ContentType   = "application/cloudevents+json"
	defaultSource = "app://rentals"
)

var ErrMalformedEvent = errors.New("outbox: malformed cloud event")

// CloudEvent is the structured-mode envelope records travel in. The envelope
// id is the record id, so consumers can deduplicate redeliveries.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
	TraceParent     string          `json:"traceparent,omitempty"`
}

func EncodeCloudEvent(rec appoutbox.EventRecord, source string) ([]byte, error) {
	if source == "" {
		source = defaultSource
	}
	if !json.Valid(rec.Payload) {
		return nil, ErrMalformedEvent
	}
	evt := CloudEvent{
		SpecVersion:     specVersion,
		ID:              rec.ID,
		Type:            rec.Name + typeSuffix,
		Source:          source,
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt.UTC(),
		DataContentType: "application/json",
		Data:            rec.Payload,
		TraceParent:     rec.Headers["traceparent"],
	}
	return json.Marshal(evt)
}

// DecodeCloudEvent turns an envelope back into the record it was built from.
func DecodeCloudEvent(payload []byte) (appoutbox.EventRecord, error) {
	var evt CloudEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return appoutbox.EventRecord{}, err
	}
	if evt.ID == "" || evt.Type == "" || len(evt.Data) == 0 {
		return appoutbox.EventRecord{}, ErrMalformedEvent
	}
	rec := appoutbox.EventRecord{
		ID:         evt.ID,
		Name:       strings.TrimSuffix(evt.Type, typeSuffix),
		Payload:    []byte(evt.Data),
		OccurredAt: evt.Time,
		Aggregate:  evt.Subject,
		Headers:    map[string]string{},
	}
	if evt.TraceParent != "" {
		rec.Headers["traceparent"] = evt.TraceParent
	}
	return rec, nil
}

// TopicFor maps an event name such as "order.requested" to "<prefix>order.events.v1".
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events" + typeSuffix
}
