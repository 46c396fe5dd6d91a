package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/model"
)

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, hospital_id, department_id, name, status,
			   consultation_mins, daily_patient_cap, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) ListActiveByDepartment(ctx context.Context, hospitalID, departmentID uuid.UUID) ([]*model.Doctor, error) {
	query := `
		SELECT id, hospital_id, department_id, name, status,
			   consultation_mins, daily_patient_cap, created_at, updated_at
		FROM doctors
		WHERE hospital_id = $1 AND department_id = $2 AND status = $3
		ORDER BY name ASC
	`
	var doctors []*model.Doctor
	err := r.db.SelectContext(ctx, &doctors, query, hospitalID, departmentID, model.DoctorStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active doctors: %w", err)
	}
	return doctors, nil
}
