package notification

import (
	"encoding/json"
	"time"
)

// EventKind identifies a delivery lifecycle event reported by the email
// provider's webhook.
type EventKind string

const (
	EventSent        EventKind = "sent"
	EventDelivered   EventKind = "delivered"
	EventOpened      EventKind = "opened"
	EventClicked     EventKind = "clicked"
	EventBounce      EventKind = "bounce"
	EventSpam        EventKind = "spam"
	EventUnsubscribe EventKind = "unsubscribe"
)

// knownEventKinds lists every kind the reconciler understands, in the order
// they occur in a message lifecycle.
var knownEventKinds = []EventKind{
	EventSent, EventDelivered, EventOpened, EventClicked,
	EventBounce, EventSpam, EventUnsubscribe,
}

// KnownEventKinds returns the accepted webhook event kinds.
func KnownEventKinds() []EventKind {
	out := make([]EventKind, len(knownEventKinds))
	copy(out, knownEventKinds)
	return out
}

// WebhookEvent is a provider delivery event after parsing. ReceivedAt is
// the provider's event timestamp when one was supplied, otherwise the time
// the event arrived here.
type WebhookEvent struct {
	Kind       EventKind
	MessageID  string
	Recipient  string
	ReceivedAt time.Time
	Link       string
	Reason     string
}

// rawWebhookEvent matches the provider's webhook payload.
type rawWebhookEvent struct {
	Event     string `json:"event"`
	MessageID string `json:"message-id"`
	Email     string `json:"email"`
	Timestamp int64  `json:"ts"`
	Link      string `json:"link"`
	Reason    string `json:"reason"`
}

// ParseEvent decodes a provider webhook payload. It returns nil for
// anything it cannot use: invalid JSON, a missing or unknown event kind,
// or a missing message id. Callers acknowledge the delivery either way, so
// there is no error to surface.
func ParseEvent(body []byte, fallbackTime time.Time) *WebhookEvent {
	var raw rawWebhookEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	if raw.MessageID == "" {
		return nil
	}

	kind := EventKind(raw.Event)
	known := false
	for _, k := range knownEventKinds {
		if kind == k {
			known = true
			break
		}
	}
	if !known {
		return nil
	}

	receivedAt := fallbackTime
	if raw.Timestamp > 0 {
		receivedAt = time.Unix(raw.Timestamp, 0).UTC()
	}

	return &WebhookEvent{
		Kind:       kind,
		MessageID:  raw.MessageID,
		Recipient:  raw.Email,
		ReceivedAt: receivedAt,
		Link:       raw.Link,
		Reason:     raw.Reason,
	}
}
