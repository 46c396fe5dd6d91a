package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/internal/repository"
	"github.com/jwalitptl/clinic-queue/pkg/errors"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
)

type fakeDoctorRepo struct {
	doctors []*model.Doctor
}

func (f *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	for _, d := range f.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, errors.NotFound("doctor", nil)
}

func (f *fakeDoctorRepo) ListActiveByDepartment(_ context.Context, _, _ uuid.UUID) ([]*model.Doctor, error) {
	return f.doctors, nil
}

type fakeVisitRepo struct {
	repository.VisitRepository

	queued map[uuid.UUID]int
	today  map[uuid.UUID]int
}

func (f *fakeVisitRepo) List(_ context.Context, filters *model.VisitFilters) ([]*model.Visit, error) {
	visits := make([]*model.Visit, f.queued[filters.DoctorID])
	for i := range visits {
		visits[i] = &model.Visit{}
	}
	return visits, nil
}

func (f *fakeVisitRepo) CountForDoctorSince(_ context.Context, doctorID uuid.UUID, _ time.Time) (int, error) {
	return f.today[doctorID], nil
}

func doctor(name string, cap *int) *model.Doctor {
	d := &model.Doctor{
		Name:            name,
		Status:          model.DoctorStatusActive,
		DailyPatientCap: cap,
	}
	d.ID = uuid.New()
	return d
}

func newService(doctors []*model.Doctor, visits *fakeVisitRepo) *Service {
	return NewService(&fakeDoctorRepo{doctors: doctors}, visits, logger.NewLogger(nil))
}

func TestAssignPicksShortestQueue(t *testing.T) {
	busy := doctor("Dr Busy", nil)
	idle := doctor("Dr Idle", nil)
	visits := &fakeVisitRepo{
		queued: map[uuid.UUID]int{busy.ID: 4, idle.ID: 1},
		today:  map[uuid.UUID]int{},
	}
	svc := newService([]*model.Doctor{busy, idle}, visits)

	got, err := svc.Assign(context.Background(), uuid.New(), uuid.New(), 15)
	require.NoError(t, err)
	assert.Equal(t, idle.ID, got.ID)
}

func TestAssignBreaksTiesByEstimatedWait(t *testing.T) {
	slow := doctor("Dr Slow", nil)
	slowDuration := 30
	slow.ConsultationMins = &slowDuration
	fast := doctor("Dr Fast", nil)

	visits := &fakeVisitRepo{
		queued: map[uuid.UUID]int{slow.ID: 2, fast.ID: 2},
		today:  map[uuid.UUID]int{},
	}
	svc := newService([]*model.Doctor{slow, fast}, visits)

	got, err := svc.Assign(context.Background(), uuid.New(), uuid.New(), 15)
	require.NoError(t, err)
	assert.Equal(t, fast.ID, got.ID)
}

func TestAssignNoActiveDoctorsIsCapacityError(t *testing.T) {
	svc := newService(nil, &fakeVisitRepo{queued: map[uuid.UUID]int{}, today: map[uuid.UUID]int{}})

	_, err := svc.Assign(context.Background(), uuid.New(), uuid.New(), 15)
	require.Error(t, err)
	assert.True(t, errors.IsCapacity(err))
}

func TestAssignPrefersUnderCapacityDoctor(t *testing.T) {
	cap := 10
	capped := doctor("Dr Capped", &cap)
	open := doctor("Dr Open", nil)

	visits := &fakeVisitRepo{
		queued: map[uuid.UUID]int{capped.ID: 1, open.ID: 5},
		today:  map[uuid.UUID]int{capped.ID: 10},
	}
	svc := newService([]*model.Doctor{capped, open}, visits)

	got, err := svc.Assign(context.Background(), uuid.New(), uuid.New(), 15)
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.ID, "saturated doctor skipped despite shorter queue")
}

func TestAssignDegradesWhenAllSaturated(t *testing.T) {
	cap := 5
	a := doctor("Dr A", &cap)
	b := doctor("Dr B", &cap)

	visits := &fakeVisitRepo{
		queued: map[uuid.UUID]int{a.ID: 2, b.ID: 6},
		today:  map[uuid.UUID]int{a.ID: 5, b.ID: 5},
	}
	svc := newService([]*model.Doctor{a, b}, visits)

	got, err := svc.Assign(context.Background(), uuid.New(), uuid.New(), 15)
	require.NoError(t, err, "capacity is soft, the visit still lands")
	assert.Equal(t, a.ID, got.ID)
}

func TestIsAtCapacity(t *testing.T) {
	cap := 3
	d := doctor("Dr Cap", &cap)
	visits := &fakeVisitRepo{today: map[uuid.UUID]int{d.ID: 3}}
	svc := newService([]*model.Doctor{d}, visits)

	at, err := svc.IsAtCapacity(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, at)

	uncapped := doctor("Dr Free", nil)
	at, err = svc.IsAtCapacity(context.Background(), uncapped)
	require.NoError(t, err)
	assert.False(t, at)
}
