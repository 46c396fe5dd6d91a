package model

import (
	"time"

	"github.com/google/uuid"
)

type VisitStatus string

const (
	VisitStatusWaiting    VisitStatus = "waiting"
	VisitStatusCheckedIn  VisitStatus = "checked_in"
	VisitStatusInProgress VisitStatus = "in_progress"
	VisitStatusOnHold     VisitStatus = "on_hold"
	VisitStatusCompleted  VisitStatus = "completed"
	VisitStatusCancelled  VisitStatus = "cancelled"
	VisitStatusNoShow     VisitStatus = "no_show"
	VisitStatusSkipped    VisitStatus = "skipped"
	VisitStatusCarryover  VisitStatus = "carryover"
)

// Queued reports whether the visit is still waiting to be served.
func (s VisitStatus) Queued() bool {
	switch s {
	case VisitStatusWaiting, VisitStatusCheckedIn, VisitStatusOnHold, VisitStatusCarryover:
		return true
	}
	return false
}

// Terminal reports whether the visit has left the live queue for good.
func (s VisitStatus) Terminal() bool {
	switch s {
	case VisitStatusCompleted, VisitStatusCancelled, VisitStatusNoShow, VisitStatusSkipped:
		return true
	}
	return false
}

// LiveStatuses lists every non-terminal status, the visit set the
// derived queue is computed from.
func LiveStatuses() []VisitStatus {
	return []VisitStatus{
		VisitStatusWaiting,
		VisitStatusCheckedIn,
		VisitStatusInProgress,
		VisitStatusOnHold,
		VisitStatusCarryover,
	}
}

type VisitPriority string

const (
	VisitPriorityNormal VisitPriority = "normal"
	VisitPriorityVIP    VisitPriority = "vip"
	VisitPriorityUrgent VisitPriority = "urgent"
)

// Visit represents one patient's presence in a doctor's queue.
// TokenNumber is unique per (doctor, reset window), not globally.
// EstimatedWaitMins is recomputed on every read and never persisted.
type Visit struct {
	Base
	HospitalID        uuid.UUID     `db:"hospital_id" json:"hospital_id"`
	PatientID         uuid.UUID     `db:"patient_id" json:"patient_id"`
	AppointmentID     *uuid.UUID    `db:"appointment_id" json:"appointment_id,omitempty"`
	DoctorID          uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	DepartmentID      uuid.UUID     `db:"department_id" json:"department_id"`
	TokenNumber       int           `db:"token_number" json:"token_number"`
	Status            VisitStatus   `db:"status" json:"status"`
	Priority          VisitPriority `db:"priority" json:"priority"`
	CheckedInAt       time.Time     `db:"checked_in_at" json:"checked_in_at"`
	StartedAt         *time.Time    `db:"started_at" json:"started_at,omitempty"`
	CompletedAt       *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	Carryover         bool          `db:"carryover" json:"carryover"`
	EstimatedWaitMins int           `db:"-" json:"estimated_wait_mins"`
}

// VisitHistory is the append-only archival record of a finished visit.
type VisitHistory struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	VisitID          uuid.UUID     `db:"visit_id" json:"visit_id"`
	HospitalID       uuid.UUID     `db:"hospital_id" json:"hospital_id"`
	PatientID        uuid.UUID     `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	DepartmentID     uuid.UUID     `db:"department_id" json:"department_id"`
	TokenNumber      int           `db:"token_number" json:"token_number"`
	Status           VisitStatus   `db:"status" json:"status"`
	Priority         VisitPriority `db:"priority" json:"priority"`
	CheckedInAt      time.Time     `db:"checked_in_at" json:"checked_in_at"`
	StartedAt        *time.Time    `db:"started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	WaitMins         int           `db:"wait_mins" json:"wait_mins"`
	ConsultationMins int           `db:"consultation_mins" json:"consultation_mins"`
	ArchivedAt       time.Time     `db:"archived_at" json:"archived_at"`
}

type VisitFilters struct {
	HospitalID   uuid.UUID
	DoctorID     uuid.UUID
	DepartmentID uuid.UUID
	Statuses     []VisitStatus
	CheckedInLT  time.Time
}

// QueueEntry pairs a visit with its computed rank in the live queue.
// DisplayToken is the prefixed token shown on waiting-room boards.
type QueueEntry struct {
	Visit             *Visit `json:"visit"`
	Position          int    `json:"position"`
	EstimatedWaitMins int    `json:"estimated_wait_mins"`
	DisplayToken      string `json:"display_token"`
}

type QueueSnapshot struct {
	HospitalID   uuid.UUID     `json:"hospital_id"`
	DoctorID     *uuid.UUID    `json:"doctor_id,omitempty"`
	DepartmentID *uuid.UUID    `json:"department_id,omitempty"`
	Entries      []*QueueEntry `json:"entries"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

type CheckInRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
}

type WalkInRequest struct {
	PatientID    uuid.UUID     `json:"patient_id" binding:"required"`
	DepartmentID uuid.UUID     `json:"department_id" binding:"required"`
	DoctorID     *uuid.UUID    `json:"doctor_id"`
	Priority     VisitPriority `json:"priority" binding:"omitempty,visit_priority"`
}

type ReassignRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
}
