package evidence

import (
	"context"
	"log/slog"
	"time"
)

// dequeueTimeout bounds each blocking Dequeue call so the worker loop can
// still observe context cancellation promptly.
const dequeueTimeout = 5 * time.Second

// Worker drains the broker and renders evidence packs (spec.md §4.10
// "Worker execution"). It runs in ORIGIN_MODE=worker processes, never
// inline with an HTTP request.
type Worker struct {
	broker  Broker
	service *Service
	logger  *slog.Logger
}

func NewWorker(broker Broker, service *Service, logger *slog.Logger) *Worker {
	return &Worker{broker: broker, service: service, logger: logger}
}

// Run blocks, dequeuing and executing tasks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok, err := w.broker.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			w.logger.Error("evidence worker: dequeue failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		if err := w.service.Execute(ctx, task); err != nil {
			w.logger.Error("evidence worker: task execution failed", "task_id", task.TaskID, "error", err)
		}
	}
}
