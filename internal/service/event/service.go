package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/internal/repository"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
)

// Service records queue state-change events in the outbox; the outbox
// processor publishes them to the broker. Emission failures must never
// fail the visit mutation that triggered them; use EmitAsync from
// mutation paths.
type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payloadJSON,
		Status:    string(model.OutboxStatusPending),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// EmitAsync logs and swallows emission failures.
func (s *Service) EmitAsync(ctx context.Context, eventType string, payload interface{}) {
	if err := s.Emit(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "failed to emit event", "event_type", eventType)
	}
}

// AppointmentEvent builds the payload for an appointment status change.
func AppointmentEvent(apt *model.Appointment, status model.AppointmentStatus) *model.AppointmentEvent {
	return &model.AppointmentEvent{
		HospitalID:    apt.HospitalID,
		AppointmentID: apt.ID,
		Status:        status,
		OccurredAt:    time.Now(),
	}
}

// VisitEvent builds the broadcast payload for a visit state change.
func VisitEvent(visit *model.Visit) *model.VisitEvent {
	return &model.VisitEvent{
		HospitalID:   visit.HospitalID,
		DoctorID:     visit.DoctorID,
		DepartmentID: visit.DepartmentID,
		Visit:        visit,
		OccurredAt:   time.Now(),
	}
}
