package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-queue/internal/model"
)

const visitColumns = `
	id, hospital_id, patient_id, appointment_id, doctor_id, department_id,
	token_number, status, priority, checked_in_at, started_at, completed_at,
	carryover, created_at, updated_at
`

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	query := `
		INSERT INTO visits (
			id, hospital_id, patient_id, appointment_id, doctor_id, department_id,
			token_number, status, priority, checked_in_at, started_at, completed_at,
			carryover, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	visit.CreatedAt = time.Now()
	visit.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		visit.ID,
		visit.HospitalID,
		visit.PatientID,
		visit.AppointmentID,
		visit.DoctorID,
		visit.DepartmentID,
		visit.TokenNumber,
		visit.Status,
		visit.Priority,
		visit.CheckedInAt,
		visit.StartedAt,
		visit.CompletedAt,
		visit.Carryover,
		visit.CreatedAt,
		visit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

func (r *visitRepository) Get(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`

	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return &visit, nil
}

func (r *visitRepository) Update(ctx context.Context, visit *model.Visit) error {
	query := `
		UPDATE visits
		SET doctor_id = $1, department_id = $2, token_number = $3, status = $4,
			priority = $5, checked_in_at = $6, started_at = $7, completed_at = $8,
			carryover = $9, updated_at = $10
		WHERE id = $11
	`
	visit.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		visit.DoctorID,
		visit.DepartmentID,
		visit.TokenNumber,
		visit.Status,
		visit.Priority,
		visit.CheckedInAt,
		visit.StartedAt,
		visit.CompletedAt,
		visit.Carryover,
		visit.UpdatedAt,
		visit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("visit not found")
	}

	return nil
}

func (r *visitRepository) List(ctx context.Context, filters *model.VisitFilters) ([]*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE hospital_id = $1`
	args := []interface{}{filters.HospitalID}
	argCount := 2

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	if filters.DepartmentID != uuid.Nil {
		query += fmt.Sprintf(" AND department_id = $%d", argCount)
		args = append(args, filters.DepartmentID)
		argCount++
	}

	if len(filters.Statuses) > 0 {
		query += fmt.Sprintf(" AND status = ANY($%d)", argCount)
		statuses := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		argCount++
	}

	if !filters.CheckedInLT.IsZero() {
		query += fmt.Sprintf(" AND checked_in_at < $%d", argCount)
		args = append(args, filters.CheckedInLT)
		argCount++
	}

	query += " ORDER BY checked_in_at ASC"

	var visits []*model.Visit
	err := r.db.SelectContext(ctx, &visits, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

func (r *visitRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE appointment_id = $1`

	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, query, appointmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit by appointment: %w", err)
	}
	return &visit, nil
}

func (r *visitRepository) GetInProgress(ctx context.Context, doctorID uuid.UUID) (*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE doctor_id = $1 AND status = $2`

	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, query, doctorID, model.VisitStatusInProgress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get in-progress visit: %w", err)
	}
	return &visit, nil
}

// Archived visits leave the live table, so token and count queries
// span visit_history too. Tokens stay strictly increasing and daily
// caps keep binding after a queue drains.
func (r *visitRepository) MaxTokenSince(ctx context.Context, doctorID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COALESCE(MAX(token_number), 0) FROM (
			SELECT token_number FROM visits
			WHERE doctor_id = $1 AND checked_in_at >= $2
			UNION ALL
			SELECT token_number FROM visit_history
			WHERE doctor_id = $1 AND checked_in_at >= $2
		) tokens
	`
	var max int
	if err := r.db.GetContext(ctx, &max, query, doctorID, since); err != nil {
		return 0, fmt.Errorf("failed to get max token: %w", err)
	}
	return max, nil
}

func (r *visitRepository) CountForDoctorSince(ctx context.Context, doctorID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT (
			SELECT COUNT(*) FROM visits
			WHERE doctor_id = $1 AND checked_in_at >= $2
		) + (
			SELECT COUNT(*) FROM visit_history
			WHERE doctor_id = $1 AND checked_in_at >= $2
		)
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, doctorID, since); err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

func (r *visitRepository) Archive(ctx context.Context, visit *model.Visit, history *model.VisitHistory) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO visit_history (
			id, visit_id, hospital_id, patient_id, doctor_id, department_id,
			token_number, status, priority, checked_in_at, started_at, completed_at,
			wait_mins, consultation_mins, archived_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.ExecContext(ctx, insert,
		history.ID,
		history.VisitID,
		history.HospitalID,
		history.PatientID,
		history.DoctorID,
		history.DepartmentID,
		history.TokenNumber,
		history.Status,
		history.Priority,
		history.CheckedInAt,
		history.StartedAt,
		history.CompletedAt,
		history.WaitMins,
		history.ConsultationMins,
		history.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, visit.ID); err != nil {
		return fmt.Errorf("failed to delete archived visit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive: %w", err)
	}
	return nil
}

func (r *visitRepository) MarkCarryover(ctx context.Context, hospitalID uuid.UUID, before time.Time) (int64, error) {
	query := `
		UPDATE visits
		SET status = $1, carryover = TRUE, updated_at = $2
		WHERE hospital_id = $3
		AND status IN ($4, $5, $6)
		AND checked_in_at < $7
		AND carryover = FALSE
	`
	result, err := r.db.ExecContext(ctx, query,
		model.VisitStatusCarryover,
		time.Now(),
		hospitalID,
		model.VisitStatusWaiting,
		model.VisitStatusCheckedIn,
		model.VisitStatusOnHold,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark carryover visits: %w", err)
	}
	return result.RowsAffected()
}

func (r *visitRepository) HospitalsWithQueuedBefore(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT hospital_id
		FROM visits
		WHERE status IN ($1, $2, $3)
		AND checked_in_at < $4
		AND carryover = FALSE
	`
	var hospitals []uuid.UUID
	err := r.db.SelectContext(ctx, &hospitals, query,
		model.VisitStatusWaiting,
		model.VisitStatusCheckedIn,
		model.VisitStatusOnHold,
		before,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list hospitals with stale visits: %w", err)
	}
	return hospitals, nil
}
