package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Webhook event types dispatched on content transitions.
const (
	WebhookEventPostPublished   = "post.published"
	WebhookEventPostUnpublished = "post.unpublished"
)

// Webhook delivery statuses.
const (
	DeliveryStatusPending = "pending"
	DeliveryStatusSuccess = "success"
	DeliveryStatusFailed  = "failed"
)

// Webhook is an org-scoped HTTP callback subscription.
type Webhook struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	Events    string    `json:"-"` // JSON array stored as string
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscribedTo reports whether the webhook subscribes to the event type.
// An empty subscription list means all events.
func (w *Webhook) SubscribedTo(event string) bool {
	if w.Events == "" || w.Events == "[]" {
		return true
	}
	var events []string
	_ = json.Unmarshal([]byte(w.Events), &events)
	for _, e := range events {
		if e == event {
			return true
		}
	}
	return false
}

// WebhookDelivery records one attempt stream for one event to one webhook.
type WebhookDelivery struct {
	ID           int64         `json:"id"`
	WebhookID    int64         `json:"webhook_id"`
	Event        string        `json:"event"`
	Payload      string        `json:"payload"`
	Status       string        `json:"status"`
	Attempts     int64         `json:"attempts"`
	ResponseCode sql.NullInt64 `json:"response_code,omitempty"`
	DeliveredAt  sql.NullTime  `json:"delivered_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
