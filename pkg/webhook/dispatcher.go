package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/originhq/origin/internal/cryptoprovider"
	"github.com/originhq/origin/internal/telemetry"
)

// claimLease bounds how long a claimed-but-unfinished delivery is hidden
// from other dispatchers (store.go ClaimDue) — comfortably longer than
// any single HTTP attempt's timeout.
const claimLease = 45 * time.Second

const claimBatchSize = 20

// Dispatcher polls the outbox and sends due deliveries. Retry *timing*
// follows the spec's fixed backoff table (BackoffSchedule), not
// go-retryablehttp's own internal retrier — retryablehttp here supplies
// only the underlying *http.Client's connection reuse and per-attempt
// timeout (SPEC_FULL.md §5 C11 supplemental detail).
type Dispatcher struct {
	store      *Store
	crypto     cryptoprovider.Provider
	httpClient *http.Client
	limiter    *OutboundLimiter
	logger     *slog.Logger
}

func NewDispatcher(store *Store, crypto cryptoprovider.Provider, timeout time.Duration, outboundRatePerSecond float64, logger *slog.Logger) *Dispatcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 0 // cross-attempt retry is ours; don't double up within one attempt
	client.Logger = nil
	client.HTTPClient.Timeout = timeout
	return &Dispatcher{
		store:      store,
		crypto:     crypto,
		httpClient: client.StandardClient(),
		limiter:    NewOutboundLimiter(outboundRatePerSecond),
		logger:     logger,
	}
}

// Run polls the outbox on interval until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	due, err := d.store.ClaimDue(ctx, time.Now(), claimLease, claimBatchSize)
	if err != nil {
		d.logger.Error("webhook dispatcher: claiming due events failed", "error", err)
		return
	}
	for _, event := range due {
		d.deliver(ctx, event)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event OutboxEvent) {
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}

	webhook, err := d.store.GetWebhook(ctx, event.TenantID, event.WebhookID)
	if err != nil {
		d.logger.Error("webhook dispatcher: webhook lookup failed", "webhook_id", event.WebhookID, "error", err)
		return
	}
	secret, err := d.crypto.Decrypt(ctx, webhook.SecretCiphertext)
	if err != nil {
		d.logger.Error("webhook dispatcher: decrypting secret failed", "webhook_id", event.WebhookID, "error", err)
		return
	}

	attemptNumber := event.Attempt + 1
	timestamp := time.Now().Unix()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(event.PayloadJSON))
	if err != nil {
		d.logger.Error("webhook dispatcher: building request failed", "webhook_id", event.WebhookID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Origin-Signature", SignatureHeader(secret, timestamp, event.PayloadJSON))
	req.Header.Set("X-Origin-Timestamp", fmt.Sprintf("%d", timestamp))
	req.Header.Set("X-Origin-Event", event.EventType)
	req.Header.Set("X-Origin-Event-Id", event.EventID.String())
	req.Header.Set("X-Origin-Correlation-Id", event.CorrelationID)

	resp, err := d.httpClient.Do(req)
	success := false
	statusCode := 0
	if err != nil {
		d.logger.Warn("webhook dispatcher: delivery attempt failed", "webhook_id", event.WebhookID, "attempt", attemptNumber, "error", err)
	} else {
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusCode = resp.StatusCode
		success = statusCode >= 200 && statusCode < 300
	}

	deadLettered := !success && attemptNumber >= MaxAttempts
	nextAttemptAt := time.Now()
	if !success && !deadLettered {
		nextAttemptAt = time.Now().Add(BackoffSchedule[attemptNumber-1])
	}

	event.Attempt = attemptNumber
	delivery := &Delivery{
		ID:            uuid.New(),
		WebhookID:     event.WebhookID,
		OutboxEventID: event.ID,
		Attempt:       attemptNumber,
		HTTPStatus:    statusCode,
		Success:       success,
		DeadLettered:  deadLettered,
		CorrelationID: event.CorrelationID,
	}

	if err := d.store.RecordAttempt(ctx, &event, delivery, success, deadLettered, nextAttemptAt); err != nil {
		d.logger.Error("webhook dispatcher: recording delivery failed", "webhook_id", event.WebhookID, "error", err)
		return
	}

	telemetry.WebhookDeliveriesTotal.WithLabelValues(outcomeLabel(success, deadLettered)).Inc()
	if deadLettered {
		telemetry.WebhookDeadLetteredTotal.Inc()
	}
}

// SendOnce sends a single, unretried, unpersisted request — used by the
// POST /v1/webhooks/test endpoint to let a tenant verify connectivity and
// their secret synchronously, outside the outbox/retry machinery.
func (d *Dispatcher) SendOnce(ctx context.Context, wh *Webhook, eventType string, body []byte) (int, error) {
	secret, err := d.crypto.Decrypt(ctx, wh.SecretCiphertext)
	if err != nil {
		return 0, fmt.Errorf("webhook: decrypting secret: %w", err)
	}

	timestamp := time.Now().Unix()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("webhook: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Origin-Signature", SignatureHeader(secret, timestamp, body))
	req.Header.Set("X-Origin-Timestamp", fmt.Sprintf("%d", timestamp))
	req.Header.Set("X-Origin-Event", eventType)
	req.Header.Set("X-Origin-Event-Id", uuid.New().String())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webhook: sending request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

func outcomeLabel(success, deadLettered bool) string {
	switch {
	case success:
		return "success"
	case deadLettered:
		return "dead_lettered"
	default:
		return "retry"
	}
}
