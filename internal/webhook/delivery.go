package webhook

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inkwell-sh/inkwell/internal/model"
	"github.com/inkwell-sh/inkwell/internal/store"
)

// Delivery configuration constants
const (
	MaxAttempts    = 3
	RetryBackoff   = 2 * time.Second
	RequestTimeout = 10 * time.Second
	UserAgent      = "Inkwell-Webhooks/1.0"

	// SignatureHeader carries the hex HMAC-SHA256 of the payload,
	// keyed with the webhook's secret.
	SignatureHeader = "X-Inkwell-Signature"
	EventHeader     = "X-Inkwell-Event"
	DeliveryHeader  = "X-Inkwell-Delivery"
)

// httpClient is the shared HTTP client with appropriate timeouts.
var httpClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// processDelivery attempts to deliver a webhook payload via HTTP POST,
// retrying transient failures with a short backoff.
func (d *Dispatcher) processDelivery(ctx context.Context, delivery *QueuedDelivery) {
	var lastCode int
	var attempts int64

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		code, retryable, err := d.attemptDelivery(ctx, delivery)
		lastCode = code
		attempts = int64(attempt)

		if err == nil {
			d.markSuccess(ctx, delivery.DeliveryID, int64(attempt), code)
			d.logger.Info("webhook delivered",
				"delivery_id", delivery.DeliveryID,
				"webhook_id", delivery.WebhookID,
				"status_code", code,
				"attempt", attempt)
			return
		}

		d.logger.Warn("webhook delivery attempt failed",
			"delivery_id", delivery.DeliveryID,
			"webhook_id", delivery.WebhookID,
			"attempt", attempt,
			"error", err)

		if !retryable {
			break
		}
		if attempt < MaxAttempts {
			select {
			case <-time.After(RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				d.markFailed(ctx, delivery.DeliveryID, int64(attempt), lastCode)
				return
			case <-d.done:
				d.markFailed(ctx, delivery.DeliveryID, int64(attempt), lastCode)
				return
			}
		}
	}

	d.markFailed(ctx, delivery.DeliveryID, attempts, lastCode)
}

// attemptDelivery performs the actual HTTP POST request. It returns the
// response status code, whether a failure is worth retrying, and the error.
func (d *Dispatcher) attemptDelivery(ctx context.Context, delivery *QueuedDelivery) (int, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL,
		bytes.NewReader(delivery.Payload))
	if err != nil {
		return 0, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(SignatureHeader, GenerateSignature(delivery.Payload, delivery.Secret))
	req.Header.Set(EventHeader, delivery.Event)
	req.Header.Set(DeliveryHeader, fmt.Sprintf("%d", delivery.DeliveryID))

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.StatusCode, false, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Client errors don't retry, except throttling and timeouts.
		retryable := resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode == http.StatusTooManyRequests
		return resp.StatusCode, retryable, fmt.Errorf("HTTP %d", resp.StatusCode)
	default:
		return resp.StatusCode, true, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

func (d *Dispatcher) markSuccess(ctx context.Context, deliveryID, attempts int64, code int) {
	err := d.queries.FinishWebhookDelivery(ctx, store.FinishWebhookDeliveryParams{
		ID:           deliveryID,
		Status:       model.DeliveryStatusSuccess,
		Attempts:     attempts,
		ResponseCode: sql.NullInt64{Int64: int64(code), Valid: code > 0},
		DeliveredAt:  sql.NullTime{Time: time.Now(), Valid: true},
	})
	if err != nil {
		d.logger.Error("failed to record delivery success", "error", err, "delivery_id", deliveryID)
	}
}

func (d *Dispatcher) markFailed(ctx context.Context, deliveryID, attempts int64, code int) {
	err := d.queries.FinishWebhookDelivery(ctx, store.FinishWebhookDeliveryParams{
		ID:           deliveryID,
		Status:       model.DeliveryStatusFailed,
		Attempts:     attempts,
		ResponseCode: sql.NullInt64{Int64: int64(code), Valid: code > 0},
	})
	if err != nil {
		d.logger.Error("failed to record delivery failure", "error", err, "delivery_id", deliveryID)
	}
}
