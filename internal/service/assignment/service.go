package assignment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/internal/repository"
	"github.com/jwalitptl/clinic-queue/pkg/errors"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
)

// Service picks the doctor for a department-level visit: least queue
// length first, then least estimated wait. Daily caps are soft: when
// every candidate is saturated the least-busy doctor still gets the
// visit and a capacity warning is logged.
type Service struct {
	doctors repository.DoctorRepository
	visits  repository.VisitRepository
	logger  *logger.Logger
	now     func() time.Time
}

func NewService(doctors repository.DoctorRepository, visits repository.VisitRepository, logger *logger.Logger) *Service {
	return &Service{
		doctors: doctors,
		visits:  visits,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type candidate struct {
	doctor     *model.Doctor
	queueLen   int
	waitMins   int
	atCapacity bool
}

// Assign returns the doctor who should receive a doctor-unspecified
// visit in the department. defaultDuration is the department's
// effective consultation duration, used when a doctor has no override.
func (s *Service) Assign(ctx context.Context, hospitalID, departmentID uuid.UUID, defaultDuration int) (*model.Doctor, error) {
	doctors, err := s.doctors.ListActiveByDepartment(ctx, hospitalID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list department doctors: %w", err)
	}
	if len(doctors) == 0 {
		return nil, errors.NewCapacity("no available doctor in department", nil)
	}

	candidates := make([]candidate, 0, len(doctors))
	for _, doctor := range doctors {
		queueLen, err := s.queueLength(ctx, hospitalID, doctor.ID)
		if err != nil {
			return nil, err
		}

		duration := defaultDuration
		if doctor.ConsultationMins != nil {
			duration = *doctor.ConsultationMins
		}

		atCapacity, err := s.IsAtCapacity(ctx, doctor)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, candidate{
			doctor:     doctor,
			queueLen:   queueLen,
			waitMins:   queueLen * duration,
			atCapacity: atCapacity,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].queueLen != candidates[j].queueLen {
			return candidates[i].queueLen < candidates[j].queueLen
		}
		return candidates[i].waitMins < candidates[j].waitMins
	})

	for _, c := range candidates {
		if !c.atCapacity {
			return c.doctor, nil
		}
	}

	// Every doctor is past their daily cap: degrade to the least-busy
	// one rather than rejecting the visit.
	best := candidates[0]
	s.logger.Warn("assigning past daily patient cap",
		"doctor_id", best.doctor.ID.String(),
		"department_id", departmentID.String(),
		"queue_length", best.queueLen)
	return best.doctor, nil
}

// IsAtCapacity compares today's visit count against the doctor's daily
// cap. Doctors without a cap are never at capacity.
func (s *Service) IsAtCapacity(ctx context.Context, doctor *model.Doctor) (bool, error) {
	if doctor.DailyPatientCap == nil {
		return false, nil
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := s.visits.CountForDoctorSince(ctx, doctor.ID, midnight)
	if err != nil {
		return false, fmt.Errorf("failed to count today's visits: %w", err)
	}
	return count >= *doctor.DailyPatientCap, nil
}

func (s *Service) queueLength(ctx context.Context, hospitalID, doctorID uuid.UUID) (int, error) {
	visits, err := s.visits.List(ctx, &model.VisitFilters{
		HospitalID: hospitalID,
		DoctorID:   doctorID,
		Statuses:   model.LiveStatuses(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compute queue length: %w", err)
	}
	return len(visits), nil
}
