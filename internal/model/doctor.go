package model

import (
	"github.com/google/uuid"
)

type DoctorStatus string

const (
	DoctorStatusActive   DoctorStatus = "active"
	DoctorStatusOnLeave  DoctorStatus = "on_leave"
	DoctorStatusInactive DoctorStatus = "inactive"
)

// Doctor carries only the capacity attributes the queue engine needs.
// Staff CRUD lives elsewhere.
type Doctor struct {
	Base
	HospitalID       uuid.UUID    `db:"hospital_id" json:"hospital_id"`
	DepartmentID     uuid.UUID    `db:"department_id" json:"department_id"`
	Name             string       `db:"name" json:"name"`
	Status           DoctorStatus `db:"status" json:"status"`
	ConsultationMins *int         `db:"consultation_mins" json:"consultation_mins,omitempty"`
	DailyPatientCap  *int         `db:"daily_patient_cap" json:"daily_patient_cap,omitempty"`
}

type Department struct {
	Base
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name       string    `db:"name" json:"name"`
}
