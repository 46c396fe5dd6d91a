package model

import (
	"github.com/google/uuid"
)

type ResetFrequency string

const (
	ResetDaily   ResetFrequency = "daily"
	ResetWeekly  ResetFrequency = "weekly"
	ResetMonthly ResetFrequency = "monthly"
	ResetNever   ResetFrequency = "never"
)

func (f ResetFrequency) Valid() bool {
	switch f {
	case ResetDaily, ResetWeekly, ResetMonthly, ResetNever:
		return true
	}
	return false
}

type BookingMode string

const (
	BookingModeOnline BookingMode = "online"
	BookingModeWalkIn BookingMode = "walk_in"
	BookingModeHybrid BookingMode = "hybrid"
)

// HospitalSettings are the hospital-wide operational defaults.
type HospitalSettings struct {
	Base
	HospitalID       uuid.UUID       `db:"hospital_id" json:"hospital_id"`
	BookingMode      *BookingMode    `db:"booking_mode" json:"booking_mode,omitempty"`
	ConsultationMins *int            `db:"consultation_mins" json:"consultation_mins,omitempty"`
	BufferMins       *int            `db:"buffer_mins" json:"buffer_mins,omitempty"`
	ArrivalWindowMin *int            `db:"arrival_window_mins" json:"arrival_window_mins,omitempty"`
	TokenReset       *ResetFrequency `db:"token_reset" json:"token_reset,omitempty"`
	MaxQueueLength   *int            `db:"max_queue_length" json:"max_queue_length,omitempty"`
	TokenPrefix      *string         `db:"token_prefix" json:"token_prefix,omitempty"`
}

// DepartmentSettings override hospital defaults field by field; a nil
// field falls through to the hospital value.
type DepartmentSettings struct {
	Base
	HospitalID       uuid.UUID       `db:"hospital_id" json:"hospital_id"`
	DepartmentID     uuid.UUID       `db:"department_id" json:"department_id"`
	BookingMode      *BookingMode    `db:"booking_mode" json:"booking_mode,omitempty"`
	ConsultationMins *int            `db:"consultation_mins" json:"consultation_mins,omitempty"`
	BufferMins       *int            `db:"buffer_mins" json:"buffer_mins,omitempty"`
	ArrivalWindowMin *int            `db:"arrival_window_mins" json:"arrival_window_mins,omitempty"`
	TokenReset       *ResetFrequency `db:"token_reset" json:"token_reset,omitempty"`
	MaxQueueLength   *int            `db:"max_queue_length" json:"max_queue_length,omitempty"`
	TokenPrefix      *string         `db:"token_prefix" json:"token_prefix,omitempty"`
}

// EffectiveDepartmentConfig is the merged, fully-populated view of the
// two settings levels. It is computed, never persisted.
type EffectiveDepartmentConfig struct {
	HospitalID       uuid.UUID      `json:"hospital_id"`
	DepartmentID     uuid.UUID      `json:"department_id"`
	BookingMode      BookingMode    `json:"booking_mode"`
	ConsultationMins int            `json:"consultation_mins"`
	BufferMins       int            `json:"buffer_mins"`
	ArrivalWindowMin int            `json:"arrival_window_mins"`
	TokenReset       ResetFrequency `json:"token_reset"`
	MaxQueueLength   int            `json:"max_queue_length"`
	TokenPrefix      string         `json:"token_prefix"`
}
