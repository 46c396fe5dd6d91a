package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/internal/repository"
	"github.com/jwalitptl/clinic-queue/internal/service/assignment"
	"github.com/jwalitptl/clinic-queue/internal/service/clinicconfig"
	"github.com/jwalitptl/clinic-queue/internal/service/event"
	"github.com/jwalitptl/clinic-queue/internal/service/scheduler"
	"github.com/jwalitptl/clinic-queue/internal/service/token"
	"github.com/jwalitptl/clinic-queue/pkg/errors"
	"github.com/jwalitptl/clinic-queue/pkg/lock"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
	"github.com/jwalitptl/clinic-queue/pkg/metrics"
)

// Lock policy for the per-doctor queue gate. The TTL must exceed the
// worst-case critical section so a stalled holder cannot cause a
// double admission; expiry is the recovery path for crashed holders.
const (
	LockTTL        = 10 * time.Second
	LockRetries    = 5
	LockRetryDelay = 100 * time.Millisecond
)

// Service drives the visit state machine: check-in through completion.
// Every queue-advancing mutation runs inside the doctor's lock, and
// token allocation always happens inside that same critical section so
// concurrent check-ins cannot race onto one token number.
type Service struct {
	visits       repository.VisitRepository
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	history      repository.VisitHistoryRepository
	config       *clinicconfig.Service
	tokens       *token.Service
	assigner     *assignment.Service
	locks        lock.Provider
	events       *event.Service
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(
	visits repository.VisitRepository,
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	history repository.VisitHistoryRepository,
	config *clinicconfig.Service,
	tokens *token.Service,
	assigner *assignment.Service,
	locks lock.Provider,
	events *event.Service,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		visits:       visits,
		appointments: appointments,
		doctors:      doctors,
		history:      history,
		config:       config,
		tokens:       tokens,
		assigner:     assigner,
		locks:        locks,
		events:       events,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckIn turns a scheduled appointment into a queued visit. Arrival
// is accepted from arrivalWindow minutes before the scheduled time
// onward; earlier arrivals are rejected with a timing error.
func (s *Service) CheckIn(ctx context.Context, appointmentID uuid.UUID) (*model.Visit, error) {
	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, errors.NotFound("appointment", err)
	}

	if existing, err := s.visits.GetByAppointment(ctx, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to check existing visit: %w", err)
	} else if existing != nil {
		return nil, errors.NewConflict("appointment already checked in", nil)
	}

	cfg, err := s.config.Resolve(ctx, apt.HospitalID, apt.DepartmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	earliest := apt.ScheduledAt.Add(-time.Duration(cfg.ArrivalWindowMin) * time.Minute)
	if now.Before(earliest) {
		return nil, errors.NewTiming("too early to check in", nil)
	}

	doctorID, err := s.resolveDoctor(ctx, apt, cfg)
	if err != nil {
		return nil, err
	}

	var visit *model.Visit
	err = s.withDoctorLock(ctx, apt.HospitalID, doctorID, func() error {
		// Re-check under the lock: a concurrent check-in for the same
		// appointment may have won the race.
		if existing, err := s.visits.GetByAppointment(ctx, appointmentID); err != nil {
			return fmt.Errorf("failed to re-check existing visit: %w", err)
		} else if existing != nil {
			return errors.NewConflict("appointment already checked in", nil)
		}

		s.warnIfQueueFull(ctx, apt.HospitalID, doctorID, cfg)

		tokenNumber, err := s.tokens.NextToken(ctx, doctorID, cfg.TokenReset)
		if err != nil {
			return err
		}

		visit = &model.Visit{
			HospitalID:    apt.HospitalID,
			PatientID:     apt.PatientID,
			AppointmentID: &apt.ID,
			DoctorID:      doctorID,
			DepartmentID:  apt.DepartmentID,
			TokenNumber:   tokenNumber,
			Status:        model.VisitStatusCheckedIn,
			Priority:      model.VisitPriorityNormal,
			CheckedInAt:   now,
		}
		if err := s.visits.Create(ctx, visit); err != nil {
			return err
		}
		s.countToken(cfg.TokenReset)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.appointments.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCheckedIn); err != nil {
		s.logger.Error(err, "failed to flag appointment as checked in", "appointment_id", apt.ID.String())
	} else {
		s.events.EmitAsync(ctx, model.TopicAppointmentChanged, event.AppointmentEvent(apt, model.AppointmentStatusCheckedIn))
	}

	s.countCheckIn("appointment")
	s.events.EmitAsync(ctx, model.TopicVisitCreated, event.VisitEvent(visit))
	return visit, nil
}

// WalkIn queues a patient without a prior appointment.
func (s *Service) WalkIn(ctx context.Context, hospitalID uuid.UUID, req *model.WalkInRequest) (*model.Visit, error) {
	cfg, err := s.config.Resolve(ctx, hospitalID, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = model.VisitPriorityNormal
	}

	var doctorID uuid.UUID
	if req.DoctorID != nil {
		doctor, err := s.doctors.Get(ctx, *req.DoctorID)
		if err != nil {
			return nil, errors.NotFound("doctor", err)
		}
		doctorID = doctor.ID
	} else {
		doctor, err := s.assigner.Assign(ctx, hospitalID, req.DepartmentID, cfg.ConsultationMins)
		if err != nil {
			return nil, err
		}
		doctorID = doctor.ID
	}

	var visit *model.Visit
	err = s.withDoctorLock(ctx, hospitalID, doctorID, func() error {
		s.warnIfQueueFull(ctx, hospitalID, doctorID, cfg)

		tokenNumber, err := s.tokens.NextToken(ctx, doctorID, cfg.TokenReset)
		if err != nil {
			return err
		}

		visit = &model.Visit{
			HospitalID:   hospitalID,
			PatientID:    req.PatientID,
			DoctorID:     doctorID,
			DepartmentID: req.DepartmentID,
			TokenNumber:  tokenNumber,
			Status:       model.VisitStatusCheckedIn,
			Priority:     priority,
			CheckedInAt:  s.now(),
		}
		if err := s.visits.Create(ctx, visit); err != nil {
			return err
		}
		s.countToken(cfg.TokenReset)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.countCheckIn("walk_in")
	s.events.EmitAsync(ctx, model.TopicVisitCreated, event.VisitEvent(visit))
	return visit, nil
}

// CallNext admits the top-ranked queued visit to service. It runs
// inside the doctor's lock and re-checks the single-patient invariant
// in the critical section.
func (s *Service) CallNext(ctx context.Context, hospitalID, doctorID uuid.UUID) (*model.Visit, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.CallNextLatency)
		defer timer.ObserveDuration()
	}

	var next *model.Visit
	err := s.withDoctorLock(ctx, hospitalID, doctorID, func() error {
		inProgress, err := s.visits.GetInProgress(ctx, doctorID)
		if err != nil {
			return err
		}
		if inProgress != nil {
			return errors.NewConflict("patient already in progress", nil)
		}

		queued, err := s.queuedVisits(ctx, hospitalID, doctorID)
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			return errors.NewConcurrency("queue empty", nil)
		}

		now := s.now()
		next = scheduler.Order(queued, now)[0]
		next.Status = model.VisitStatusInProgress
		next.StartedAt = &now
		return s.visits.Update(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	s.events.EmitAsync(ctx, model.TopicVisitUpdated, event.VisitEvent(next))
	return next, nil
}

// Complete finishes a visit and archives it. Completing a visit that
// never entered service is accepted; completing an already-terminal
// visit is not.
func (s *Service) Complete(ctx context.Context, visitID uuid.UUID) (*model.Visit, error) {
	return s.finish(ctx, visitID, model.VisitStatusCompleted)
}

// Skip removes a queued or in-service visit from the queue and
// archives it.
func (s *Service) Skip(ctx context.Context, visitID uuid.UUID) (*model.Visit, error) {
	return s.finish(ctx, visitID, model.VisitStatusSkipped)
}

func (s *Service) finish(ctx context.Context, visitID uuid.UUID, status model.VisitStatus) (*model.Visit, error) {
	visit, err := s.visits.Get(ctx, visitID)
	if err != nil {
		return nil, errors.NotFound("visit", err)
	}
	if visit.Status.Terminal() {
		return nil, errors.NewConflict("invalid transition for finished visit", nil)
	}

	now := s.now()
	started := visit.StartedAt
	if started == nil {
		// Completed without ever being called: backfill so history
		// durations stay well defined.
		started = &now
	}

	visit.Status = status
	visit.StartedAt = started
	visit.CompletedAt = &now

	history := &model.VisitHistory{
		ID:               uuid.New(),
		VisitID:          visit.ID,
		HospitalID:       visit.HospitalID,
		PatientID:        visit.PatientID,
		DoctorID:         visit.DoctorID,
		DepartmentID:     visit.DepartmentID,
		TokenNumber:      visit.TokenNumber,
		Status:           status,
		Priority:         visit.Priority,
		CheckedInAt:      visit.CheckedInAt,
		StartedAt:        visit.StartedAt,
		CompletedAt:      visit.CompletedAt,
		WaitMins:         int(started.Sub(visit.CheckedInAt).Minutes()),
		ConsultationMins: int(now.Sub(*started).Minutes()),
		ArchivedAt:       now,
	}

	if err := s.visits.Archive(ctx, visit, history); err != nil {
		return nil, fmt.Errorf("failed to archive visit: %w", err)
	}

	s.events.EmitAsync(ctx, model.TopicVisitArchived, event.VisitEvent(visit))
	return visit, nil
}

// Delay resets the check-in timestamp, pushing the visit to the back
// of its priority tier. Status is unchanged.
func (s *Service) Delay(ctx context.Context, visitID uuid.UUID) (*model.Visit, error) {
	visit, err := s.visits.Get(ctx, visitID)
	if err != nil {
		return nil, errors.NotFound("visit", err)
	}
	if !visit.Status.Queued() {
		return nil, errors.NewConflict("only queued visits can be delayed", nil)
	}

	visit.CheckedInAt = s.now()
	if err := s.visits.Update(ctx, visit); err != nil {
		return nil, err
	}

	s.events.EmitAsync(ctx, model.TopicVisitUpdated, event.VisitEvent(visit))
	return visit, nil
}

// Reassign moves a queued visit to another doctor. The visit gets a
// fresh token under the new doctor's sequence; the old number is
// abandoned, never reused.
func (s *Service) Reassign(ctx context.Context, visitID, newDoctorID uuid.UUID) (*model.Visit, error) {
	visit, err := s.visits.Get(ctx, visitID)
	if err != nil {
		return nil, errors.NotFound("visit", err)
	}
	if !visit.Status.Queued() {
		return nil, errors.NewConflict("only queued visits can be reassigned", nil)
	}

	doctor, err := s.doctors.Get(ctx, newDoctorID)
	if err != nil {
		return nil, errors.NotFound("doctor", err)
	}

	cfg, err := s.config.Resolve(ctx, visit.HospitalID, doctor.DepartmentID)
	if err != nil {
		return nil, err
	}

	err = s.withDoctorLock(ctx, visit.HospitalID, doctor.ID, func() error {
		tokenNumber, err := s.tokens.NextToken(ctx, doctor.ID, cfg.TokenReset)
		if err != nil {
			return err
		}

		visit.DoctorID = doctor.ID
		visit.DepartmentID = doctor.DepartmentID
		visit.TokenNumber = tokenNumber
		if err := s.visits.Update(ctx, visit); err != nil {
			return err
		}
		s.countToken(cfg.TokenReset)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.EmitAsync(ctx, model.TopicVisitUpdated, event.VisitEvent(visit))
	return visit, nil
}

// CancelAppointment cascades a booking-side cancellation into the
// queue: a still-queued visit for the appointment is forced to
// cancelled.
func (s *Service) CancelAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	visit, err := s.visits.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("failed to look up visit for appointment: %w", err)
	}
	if visit == nil || !visit.Status.Queued() {
		return nil
	}

	visit.Status = model.VisitStatusCancelled
	if err := s.visits.Update(ctx, visit); err != nil {
		return err
	}

	s.events.EmitAsync(ctx, model.TopicVisitUpdated, event.VisitEvent(visit))
	return nil
}

// GetDoctorQueue recomputes the doctor's live queue. Nothing is
// cached: two concurrent readers may see different orderings, each
// consistent at its own read time.
func (s *Service) GetDoctorQueue(ctx context.Context, hospitalID, doctorID uuid.UUID) (*model.QueueSnapshot, error) {
	visits, err := s.visits.List(ctx, &model.VisitFilters{
		HospitalID: hospitalID,
		DoctorID:   doctorID,
		Statuses:   model.LiveStatuses(),
	})
	if err != nil {
		return nil, err
	}

	entries, err := s.buildSnapshot(ctx, hospitalID, visits)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.QueueDepth.WithLabelValues(doctorID.String()).Set(float64(len(entries)))
	}

	return &model.QueueSnapshot{
		HospitalID:  hospitalID,
		DoctorID:    &doctorID,
		Entries:     entries,
		GeneratedAt: s.now(),
	}, nil
}

// GetDepartmentQueue recomputes the merged queue across the
// department's doctors.
func (s *Service) GetDepartmentQueue(ctx context.Context, hospitalID, departmentID uuid.UUID) (*model.QueueSnapshot, error) {
	visits, err := s.visits.List(ctx, &model.VisitFilters{
		HospitalID:   hospitalID,
		DepartmentID: departmentID,
		Statuses:     model.LiveStatuses(),
	})
	if err != nil {
		return nil, err
	}

	entries, err := s.buildSnapshot(ctx, hospitalID, visits)
	if err != nil {
		return nil, err
	}

	return &model.QueueSnapshot{
		HospitalID:   hospitalID,
		DepartmentID: &departmentID,
		Entries:      entries,
		GeneratedAt:  s.now(),
	}, nil
}

// QueuePosition reports one visit's rank and wait projection inside
// its doctor's queue.
func (s *Service) QueuePosition(ctx context.Context, visitID uuid.UUID) (*model.QueueEntry, error) {
	visit, err := s.visits.Get(ctx, visitID)
	if err != nil {
		return nil, errors.NotFound("visit", err)
	}

	snapshot, err := s.GetDoctorQueue(ctx, visit.HospitalID, visit.DoctorID)
	if err != nil {
		return nil, err
	}

	for _, entry := range snapshot.Entries {
		if entry.Visit.ID == visitID {
			return entry, nil
		}
	}
	return nil, errors.NotFound("visit in live queue", nil)
}

// DoctorHistory lists archived visits for reporting dashboards.
func (s *Service) DoctorHistory(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*model.VisitHistory, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.history.ListForDoctor(ctx, doctorID, from, from.AddDate(0, 0, 1))
}

func (s *Service) resolveDoctor(ctx context.Context, apt *model.Appointment, cfg *model.EffectiveDepartmentConfig) (uuid.UUID, error) {
	if apt.DoctorID != nil {
		doctor, err := s.doctors.Get(ctx, *apt.DoctorID)
		if err != nil {
			return uuid.Nil, errors.NotFound("doctor", err)
		}
		return doctor.ID, nil
	}

	doctor, err := s.assigner.Assign(ctx, apt.HospitalID, apt.DepartmentID, cfg.ConsultationMins)
	if err != nil {
		return uuid.Nil, err
	}
	return doctor.ID, nil
}

// warnIfQueueFull applies the soft queue-length limit: admission is
// never refused, it is logged and counted so staff can react.
func (s *Service) warnIfQueueFull(ctx context.Context, hospitalID, doctorID uuid.UUID, cfg *model.EffectiveDepartmentConfig) {
	if cfg.MaxQueueLength <= 0 {
		return
	}

	queued, err := s.queuedVisits(ctx, hospitalID, doctorID)
	if err != nil {
		return
	}
	if len(queued) >= cfg.MaxQueueLength {
		s.logger.Warn("queue length past soft limit",
			"doctor_id", doctorID.String(),
			"queue_length", len(queued),
			"max_queue_length", cfg.MaxQueueLength)
		if s.metrics != nil {
			s.metrics.CapacityWarn.Inc()
		}
	}
}

func (s *Service) queuedVisits(ctx context.Context, hospitalID, doctorID uuid.UUID) ([]*model.Visit, error) {
	return s.visits.List(ctx, &model.VisitFilters{
		HospitalID: hospitalID,
		DoctorID:   doctorID,
		Statuses: []model.VisitStatus{
			model.VisitStatusWaiting,
			model.VisitStatusCheckedIn,
			model.VisitStatusOnHold,
			model.VisitStatusCarryover,
		},
	})
}

// buildSnapshot ranks visits with each one's effective consultation
// duration: the doctor's override when present, else the department
// config value.
func (s *Service) buildSnapshot(ctx context.Context, hospitalID uuid.UUID, visits []*model.Visit) ([]*model.QueueEntry, error) {
	configs := make(map[uuid.UUID]*model.EffectiveDepartmentConfig)
	doctorMins := make(map[uuid.UUID]*int)

	for _, v := range visits {
		if _, ok := configs[v.DepartmentID]; !ok {
			cfg, err := s.config.Resolve(ctx, hospitalID, v.DepartmentID)
			if err != nil {
				return nil, err
			}
			configs[v.DepartmentID] = cfg
		}
		if _, ok := doctorMins[v.DoctorID]; !ok {
			doctor, err := s.doctors.Get(ctx, v.DoctorID)
			if err != nil {
				return nil, errors.NotFound("doctor", err)
			}
			doctorMins[v.DoctorID] = doctor.ConsultationMins
		}
	}

	durationFn := func(v *model.Visit) int {
		if override := doctorMins[v.DoctorID]; override != nil {
			return *override
		}
		return configs[v.DepartmentID].ConsultationMins
	}

	entries := scheduler.Snapshot(visits, s.now(), durationFn)
	for _, entry := range entries {
		prefix := configs[entry.Visit.DepartmentID].TokenPrefix
		entry.DisplayToken = fmt.Sprintf("%s%d", prefix, entry.Visit.TokenNumber)
	}
	return entries, nil
}

// withDoctorLock serializes queue-advancing operations per doctor.
// Acquisition is retried a bounded number of times; exhausting the
// retries surfaces a retryable concurrency error, not a hard failure.
func (s *Service) withDoctorLock(ctx context.Context, hospitalID, doctorID uuid.UUID, fn func() error) error {
	key := fmt.Sprintf("%s:%s", hospitalID, doctorID)

	var waitTimer *prometheus.Timer
	if s.metrics != nil {
		waitTimer = prometheus.NewTimer(s.metrics.LockWaitDuration)
	}

	for attempt := 0; attempt < LockRetries; attempt++ {
		acquired, err := s.locks.TryAcquire(ctx, key, LockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire queue lock: %w", err)
		}
		if acquired {
			if waitTimer != nil {
				waitTimer.ObserveDuration()
			}
			s.countLock("acquired")
			defer func() {
				if err := s.locks.Release(ctx, key); err != nil {
					s.logger.Error(err, "failed to release queue lock", "key", key)
				}
			}()
			return fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(LockRetryDelay):
		}
	}

	s.countLock("exhausted")
	return errors.NewConcurrency("queue busy, retry", nil)
}

func (s *Service) countLock(status string) {
	if s.metrics != nil {
		s.metrics.LockAcquisitions.WithLabelValues(status).Inc()
	}
}

func (s *Service) countToken(reset model.ResetFrequency) {
	if s.metrics != nil {
		s.metrics.TokensIssued.WithLabelValues(string(reset)).Inc()
	}
}

func (s *Service) countCheckIn(source string) {
	if s.metrics != nil {
		s.metrics.VisitsCheckedIn.WithLabelValues(source).Inc()
	}
}
