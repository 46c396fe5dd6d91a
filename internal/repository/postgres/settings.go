package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/model"
)

// Both lookups return (nil, nil) when no row exists: missing settings
// are not an error, the resolver falls through to defaults.

func (r *settingsRepository) GetHospitalSettings(ctx context.Context, hospitalID uuid.UUID) (*model.HospitalSettings, error) {
	query := `
		SELECT id, hospital_id, booking_mode, consultation_mins, buffer_mins,
			   arrival_window_mins, token_reset, max_queue_length, token_prefix,
			   created_at, updated_at
		FROM hospital_settings
		WHERE hospital_id = $1
	`
	var settings model.HospitalSettings
	err := r.db.GetContext(ctx, &settings, query, hospitalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hospital settings: %w", err)
	}
	return &settings, nil
}

func (r *settingsRepository) GetDepartmentSettings(ctx context.Context, hospitalID, departmentID uuid.UUID) (*model.DepartmentSettings, error) {
	query := `
		SELECT id, hospital_id, department_id, booking_mode, consultation_mins,
			   buffer_mins, arrival_window_mins, token_reset, max_queue_length,
			   token_prefix, created_at, updated_at
		FROM department_settings
		WHERE hospital_id = $1 AND department_id = $2
	`
	var settings model.DepartmentSettings
	err := r.db.GetContext(ctx, &settings, query, hospitalID, departmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department settings: %w", err)
	}
	return &settings, nil
}
