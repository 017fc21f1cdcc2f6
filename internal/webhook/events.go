package webhook

import (
	"context"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
)

// EventPayload is the JSON body POSTed to subscribers.
type EventPayload struct {
	Event     string      `json:"event"`
	OrgID     int64       `json:"org_id"`
	Timestamp time.Time   `json:"timestamp"`
	Post      PostPayload `json:"post"`
}

// PostPayload carries the affected post's public fields.
type PostPayload struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// PostPublished dispatches a post.published event.
// Implements the content lifecycle's emitter contract.
func (d *Dispatcher) PostPublished(ctx context.Context, orgID int64, post model.Post) {
	d.Dispatch(ctx, orgID, model.WebhookEventPostPublished,
		newEventPayload(model.WebhookEventPostPublished, orgID, post))
}

// PostUnpublished dispatches a post.unpublished event.
func (d *Dispatcher) PostUnpublished(ctx context.Context, orgID int64, post model.Post) {
	d.Dispatch(ctx, orgID, model.WebhookEventPostUnpublished,
		newEventPayload(model.WebhookEventPostUnpublished, orgID, post))
}

func newEventPayload(event string, orgID int64, post model.Post) EventPayload {
	return EventPayload{
		Event:     event,
		OrgID:     orgID,
		Timestamp: time.Now().UTC(),
		Post: PostPayload{
			ID:          post.ID,
			Title:       post.Title,
			Slug:        post.Slug,
			Excerpt:     post.Excerpt,
			PublishedAt: post.PublishedAt,
		},
	}
}
