package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/internal/repository"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
)

type fakeVisitRepo struct {
	repository.VisitRepository

	visits []*model.Visit
}

func (f *fakeVisitRepo) HospitalsWithQueuedBefore(_ context.Context, before time.Time) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, v := range f.visits {
		if v.Status.Queued() && v.CheckedInAt.Before(before) && !seen[v.HospitalID] {
			seen[v.HospitalID] = true
			out = append(out, v.HospitalID)
		}
	}
	return out, nil
}

func (f *fakeVisitRepo) MarkCarryover(_ context.Context, hospitalID uuid.UUID, before time.Time) (int64, error) {
	var n int64
	for _, v := range f.visits {
		if v.HospitalID == hospitalID && v.Status.Queued() && v.CheckedInAt.Before(before) && !v.Carryover {
			v.Carryover = true
			v.Status = model.VisitStatusCarryover
			n++
		}
	}
	return n, nil
}

func queuedVisit(hospitalID uuid.UUID, status model.VisitStatus, checkedInAt time.Time) *model.Visit {
	v := &model.Visit{
		HospitalID:  hospitalID,
		Status:      status,
		CheckedInAt: checkedInAt,
	}
	v.ID = uuid.New()
	return v
}

func TestSweepAllMarksStaleQueuedVisits(t *testing.T) {
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	hospitalA := uuid.New()
	hospitalB := uuid.New()

	stale := queuedVisit(hospitalA, model.VisitStatusCheckedIn, now.Add(-8*time.Hour))
	staleB := queuedVisit(hospitalB, model.VisitStatusWaiting, now.Add(-6*time.Hour))
	fresh := queuedVisit(hospitalA, model.VisitStatusCheckedIn, now.Add(-10*time.Minute))
	inProgress := queuedVisit(hospitalA, model.VisitStatusInProgress, now.Add(-9*time.Hour))

	repo := &fakeVisitRepo{visits: []*model.Visit{stale, staleB, fresh, inProgress}}
	w := NewCarryoverWorker(repo, logger.NewLogger(nil), nil, time.Minute).
		WithClock(func() time.Time { return now })

	swept, err := w.SweepAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), swept)

	assert.Equal(t, model.VisitStatusCarryover, stale.Status)
	assert.True(t, stale.Carryover)
	assert.Equal(t, model.VisitStatusCarryover, staleB.Status)
	assert.Equal(t, model.VisitStatusCheckedIn, fresh.Status)
	assert.Equal(t, model.VisitStatusInProgress, inProgress.Status)
}

func TestSweepAllIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	hospitalID := uuid.New()
	stale := queuedVisit(hospitalID, model.VisitStatusCheckedIn, now.Add(-8*time.Hour))

	repo := &fakeVisitRepo{visits: []*model.Visit{stale}}
	w := NewCarryoverWorker(repo, logger.NewLogger(nil), nil, time.Minute).
		WithClock(func() time.Time { return now })

	swept, err := w.SweepAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	swept, err = w.SweepAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), swept)
}

func TestTickSweepsOncePerDay(t *testing.T) {
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	hospitalID := uuid.New()

	repo := &fakeVisitRepo{visits: []*model.Visit{
		queuedVisit(hospitalID, model.VisitStatusCheckedIn, now.Add(-8*time.Hour)),
	}}
	w := NewCarryoverWorker(repo, logger.NewLogger(nil), nil, time.Minute).
		WithClock(func() time.Time { return now })

	require.NoError(t, w.tick(context.Background()))
	assert.Equal(t, model.VisitStatusCarryover, repo.visits[0].Status)

	// Same day: a fresh straggler waits for tomorrow's sweep.
	repo.visits = append(repo.visits, queuedVisit(hospitalID, model.VisitStatusCheckedIn, now.Add(-7*time.Hour)))
	require.NoError(t, w.tick(context.Background()))
	assert.Equal(t, model.VisitStatusCheckedIn, repo.visits[1].Status)

	// Next day the sweep runs again.
	now = now.AddDate(0, 0, 1)
	require.NoError(t, w.tick(context.Background()))
	assert.Equal(t, model.VisitStatusCarryover, repo.visits[1].Status)
}
