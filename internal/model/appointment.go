package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCheckedIn AppointmentStatus = "checked_in"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Appointment is owned by the booking workflow. The queue engine only
// consumes its scheduled time and links the visit it produces.
type Appointment struct {
	Base
	HospitalID   uuid.UUID         `db:"hospital_id" json:"hospital_id"`
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID     *uuid.UUID        `db:"doctor_id" json:"doctor_id,omitempty"`
	DepartmentID uuid.UUID         `db:"department_id" json:"department_id"`
	ScheduledAt  time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status       AppointmentStatus `db:"status" json:"status"`
}
