package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBrokerUnavailable signals a transient broker connectivity failure —
// never a reason to transition a Pack into StatusFailed (spec.md §4.10).
var ErrBrokerUnavailable = errors.New("evidence: broker unavailable")

// Task is one unit of enqueued work: render every requested format for
// one certificate.
type Task struct {
	TaskID        string   `json:"task_id"`
	TenantID      string   `json:"tenant_id"`
	CertificateID string   `json:"certificate_id"`
	Formats       []Format `json:"formats"`
}

// Broker is the task-queue abstraction the spec names only implicitly
// (the "task broker" whose ConnectionError/TimeoutError maps to a 503,
// spec.md §4.10). Redis is the default transport (A6 in SPEC_FULL.md);
// any implementation needs only reliable enqueue/dequeue semantics.
type Broker interface {
	Enqueue(ctx context.Context, t Task) error
	// Dequeue blocks up to timeout for the next task. ok is false on a
	// plain timeout (no task available); err is non-nil only on an
	// actual broker failure.
	Dequeue(ctx context.Context, timeout time.Duration) (t Task, ok bool, err error)
}

// RedisBroker implements Broker on a Redis list. Dequeue moves a task from
// the pending list to a processing list atomically (BRPOPLPUSH) and removes
// it from the processing list before returning it, so a task whose worker
// dies mid-render is no longer held in Redis; the stuck-pending sweep in
// sweep.go recovers such packs at the EvidencePack-row level.
type RedisBroker struct {
	redis      *redis.Client
	queue      string
	processing string
}

func NewRedisBroker(rdb *redis.Client, queueName string) *RedisBroker {
	return &RedisBroker{redis: rdb, queue: queueName, processing: queueName + ":processing"}
}

func (b *RedisBroker) Enqueue(ctx context.Context, t Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("evidence: encoding task: %w", err)
	}
	if err := b.redis.LPush(ctx, b.queue, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	return nil
}

func (b *RedisBroker) Dequeue(ctx context.Context, timeout time.Duration) (Task, bool, error) {
	raw, err := b.redis.BRPopLPush(ctx, b.queue, b.processing, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	var t Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		// Malformed payload: drop it from the processing list and move on
		// rather than wedging the worker loop on a poison message.
		b.redis.LRem(ctx, b.processing, 1, raw)
		return Task{}, false, fmt.Errorf("evidence: decoding task: %w", err)
	}
	b.redis.LRem(ctx, b.processing, 1, raw)
	return t, true, nil
}
