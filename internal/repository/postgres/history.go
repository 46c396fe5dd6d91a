package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/model"
)

func (r *visitHistoryRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.VisitHistory, error) {
	query := `
		SELECT id, visit_id, hospital_id, patient_id, doctor_id, department_id,
			   token_number, status, priority, checked_in_at, started_at,
			   completed_at, wait_mins, consultation_mins, archived_at
		FROM visit_history
		WHERE doctor_id = $1 AND archived_at >= $2 AND archived_at < $3
		ORDER BY archived_at ASC
	`
	var records []*model.VisitHistory
	err := r.db.SelectContext(ctx, &records, query, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list visit history: %w", err)
	}
	return records, nil
}
