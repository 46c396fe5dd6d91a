package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/model"
)

// All repository interfaces in one file
type (
	// VisitRepository handles the live visit set. The live queue is a
	// derived view over non-terminal visits; there is no queue table.
	VisitRepository interface {
		Create(ctx context.Context, visit *model.Visit) error
		Get(ctx context.Context, id uuid.UUID) (*model.Visit, error)
		Update(ctx context.Context, visit *model.Visit) error
		List(ctx context.Context, filters *model.VisitFilters) ([]*model.Visit, error)
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Visit, error)
		GetInProgress(ctx context.Context, doctorID uuid.UUID) (*model.Visit, error)
		MaxTokenSince(ctx context.Context, doctorID uuid.UUID, since time.Time) (int, error)
		CountForDoctorSince(ctx context.Context, doctorID uuid.UUID, since time.Time) (int, error)
		// Archive inserts the history record and removes the visit from
		// the live set in a single transaction.
		Archive(ctx context.Context, visit *model.Visit, history *model.VisitHistory) error
		MarkCarryover(ctx context.Context, hospitalID uuid.UUID, before time.Time) (int64, error)
		HospitalsWithQueuedBefore(ctx context.Context, before time.Time) ([]uuid.UUID, error)
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
	}

	DoctorRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		ListActiveByDepartment(ctx context.Context, hospitalID, departmentID uuid.UUID) ([]*model.Doctor, error)
	}

	SettingsRepository interface {
		GetHospitalSettings(ctx context.Context, hospitalID uuid.UUID) (*model.HospitalSettings, error)
		GetDepartmentSettings(ctx context.Context, hospitalID, departmentID uuid.UUID) (*model.DepartmentSettings, error)
	}

	VisitHistoryRepository interface {
		ListForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.VisitHistory, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
