package evidence

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically requeues pending packs whose updated_at has gone
// stale — the recovery path for a worker that died mid-render or a
// broker message that was lost in flight (spec.md §4.10).
type Sweeper struct {
	packs       *Store
	broker      Broker
	stuckAfter  time.Duration
	logger      *slog.Logger
	cron        *cron.Cron
}

func NewSweeper(packs *Store, broker Broker, stuckAfter, interval time.Duration, logger *slog.Logger) *Sweeper {
	s := &Sweeper{
		packs:      packs,
		broker:     broker,
		stuckAfter: stuckAfter,
		logger:     logger,
		cron:       cron.New(),
	}
	spec := "@every " + interval.String()
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		logger.Error("evidence sweep: invalid schedule, sweep disabled", "interval", interval, "error", err)
	}
	return s
}

// Start begins the periodic sweep. Callers stop it via ctx cancellation;
// Stop() also works directly on the underlying cron.
func (s *Sweeper) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) runOnce() {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.stuckAfter)
	stuck, err := s.packs.RequeueStuck(ctx, cutoff, time.Now())
	if err != nil {
		s.logger.Error("evidence sweep: querying stuck packs failed", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}
	s.logger.Info("evidence sweep: requeuing stuck packs", "count", len(stuck))
	for _, p := range stuck {
		task := Task{TaskID: p.TaskID, TenantID: p.TenantID.String(), CertificateID: p.CertificateID.String(), Formats: p.FormatsRequested}
		if err := s.broker.Enqueue(ctx, task); err != nil {
			s.logger.Error("evidence sweep: re-enqueueing stuck pack failed", "certificate_id", p.CertificateID, "error", err)
		}
	}
}
