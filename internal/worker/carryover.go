package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/repository"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
	"github.com/jwalitptl/clinic-queue/pkg/metrics"
)

// CarryoverWorker reclassifies visits left queued past their service
// day. A carried-over visit keeps its identity and token number; only
// its status and carryover flag change, so the sweep is idempotent.
type CarryoverWorker struct {
	visits        repository.VisitRepository
	logger        *logger.Logger
	metrics       *metrics.Metrics
	checkInterval time.Duration
	now           func() time.Time

	lastSweepDay time.Time
}

func NewCarryoverWorker(visits repository.VisitRepository, logger *logger.Logger, m *metrics.Metrics, checkInterval time.Duration) *CarryoverWorker {
	return &CarryoverWorker{
		visits:        visits,
		logger:        logger,
		metrics:       m,
		checkInterval: checkInterval,
		now:           time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (w *CarryoverWorker) WithClock(now func() time.Time) *CarryoverWorker {
	w.now = now
	return w
}

func (w *CarryoverWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				w.logger.Error(err, "carryover sweep failed")
			}
		}
	}
}

// tick sweeps at most once per calendar day. The ticker fires far more
// often than that so a restart close to midnight still sweeps promptly.
func (w *CarryoverWorker) tick(ctx context.Context) error {
	today := startOfDay(w.now())
	if !w.lastSweepDay.Before(today) {
		return nil
	}

	if _, err := w.SweepAll(ctx); err != nil {
		return err
	}
	w.lastSweepDay = today
	return nil
}

// SweepAll marks stale queued visits carryover across every hospital
// with leftovers. Also the entry point for manual sweeps.
func (w *CarryoverWorker) SweepAll(ctx context.Context) (int64, error) {
	midnight := startOfDay(w.now())

	hospitals, err := w.visits.HospitalsWithQueuedBefore(ctx, midnight)
	if err != nil {
		return 0, fmt.Errorf("failed to find hospitals with stale queues: %w", err)
	}

	var total int64
	for _, hospitalID := range hospitals {
		swept, err := w.SweepHospital(ctx, hospitalID)
		if err != nil {
			// One hospital failing must not block the rest.
			w.logger.Error(err, "carryover sweep failed for hospital", "hospital_id", hospitalID.String())
			continue
		}
		total += swept
	}
	return total, nil
}

// SweepHospital marks one hospital's pre-midnight queued visits as
// carryover.
func (w *CarryoverWorker) SweepHospital(ctx context.Context, hospitalID uuid.UUID) (int64, error) {
	midnight := startOfDay(w.now())

	swept, err := w.visits.MarkCarryover(ctx, hospitalID, midnight)
	if err != nil {
		return 0, fmt.Errorf("failed to mark carryover visits: %w", err)
	}

	if swept > 0 {
		w.logger.Info("swept carryover visits", "hospital_id", hospitalID.String(), "count", swept)
		if w.metrics != nil {
			w.metrics.CarryoverSwept.Add(float64(swept))
		}
	}
	return swept, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
