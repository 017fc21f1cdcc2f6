// Package webhook delivers content lifecycle events to org-registered
// HTTP callbacks. Deliveries are queued and processed by a worker pool;
// the publishing request never waits on a subscriber's endpoint.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwell-sh/inkwell/internal/store"
)

// Dispatcher handles webhook event dispatching and queuing.
type Dispatcher struct {
	queries *store.Queries
	logger  *slog.Logger
	queue   chan *QueuedDelivery
	workers int
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// QueuedDelivery represents a delivery queued for processing.
type QueuedDelivery struct {
	DeliveryID int64
	WebhookID  int64
	Event      string
	Payload    []byte
	URL        string
	Secret     string
}

// Config holds dispatcher configuration.
type Config struct {
	Workers   int // Number of concurrent delivery workers
	QueueSize int
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   3,
		QueueSize: 100,
	}
}

// NewDispatcher creates a new webhook dispatcher.
func NewDispatcher(db *sql.DB, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries: store.New(db),
		logger:  logger,
		queue:   make(chan *QueuedDelivery, cfg.QueueSize),
		workers: cfg.Workers,
		done:    make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting webhook dispatcher", "workers", d.workers)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for workers to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping webhook dispatcher")
	close(d.done)
	d.wg.Wait()
	d.logger.Info("webhook dispatcher stopped")
}

// worker processes queued deliveries.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case delivery := <-d.queue:
			d.processDelivery(ctx, delivery)
		}
	}
}

// Dispatch fans an event out to the organization's subscribed webhooks.
// A delivery row is recorded per webhook before the HTTP attempt runs.
func (d *Dispatcher) Dispatch(ctx context.Context, orgID int64, event string, payload any) {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()

	if !running {
		d.logger.Warn("dispatcher not running, dropping event", "event", event, "org_id", orgID)
		return
	}

	webhooks, err := d.queries.ListActiveWebhooksByOrg(ctx, orgID)
	if err != nil {
		d.logger.Error("failed to list webhooks", "error", err, "org_id", orgID, "event", event)
		return
	}
	if len(webhooks) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("failed to marshal event payload", "error", err, "event", event)
		return
	}

	now := time.Now()
	for i := range webhooks {
		wh := webhooks[i]
		if !wh.SubscribedTo(event) {
			continue
		}

		deliveryID, err := d.queries.CreateWebhookDelivery(ctx, store.CreateWebhookDeliveryParams{
			WebhookID: wh.ID,
			Event:     event,
			Payload:   string(body),
			CreatedAt: now,
		})
		if err != nil {
			d.logger.Error("failed to create delivery record",
				"error", err, "webhook_id", wh.ID, "event", event)
			continue
		}

		qd := &QueuedDelivery{
			DeliveryID: deliveryID,
			WebhookID:  wh.ID,
			Event:      event,
			Payload:    body,
			URL:        wh.URL,
			Secret:     wh.Secret,
		}

		select {
		case d.queue <- qd:
		default:
			d.logger.Warn("delivery queue full, dropping delivery",
				"delivery_id", deliveryID, "webhook_id", wh.ID)
			d.markFailed(ctx, deliveryID, 0, 0)
		}
	}
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
