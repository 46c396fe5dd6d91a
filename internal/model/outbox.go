package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Queue event topics published through the outbox.
const (
	TopicVisitCreated         = "visit.created"
	TopicVisitUpdated         = "visit.updated"
	TopicVisitArchived        = "visit.archived"
	TopicAppointmentChanged   = "appointment.changed"
	TopicAppointmentCancelled = "appointment.cancelled"
)

// OutboxEvent is written in the same transaction as the visit mutation
// that triggered it and published asynchronously by the processor.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
}

// AppointmentEvent notifies booking-side consumers of a status change.
type AppointmentEvent struct {
	HospitalID    uuid.UUID         `json:"hospital_id"`
	AppointmentID uuid.UUID         `json:"appointment_id"`
	Status        AppointmentStatus `json:"status"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// VisitEvent is the payload pushed to live displays. Scope fields let
// the realtime hub match subscribers without unpacking the visit.
type VisitEvent struct {
	HospitalID   uuid.UUID `json:"hospital_id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	DepartmentID uuid.UUID `json:"department_id"`
	Visit        *Visit    `json:"visit"`
	OccurredAt   time.Time `json:"occurred_at"`
}
