package token

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/internal/repository"
)

// Service issues sequential token numbers per doctor. Numbering
// restarts at 1 whenever the reset window rolls over; tokens are never
// globally unique, only unique within (doctor, window).
//
// NextToken is read-then-write: callers must hold the doctor's queue
// lock while creating the visit the token is stamped on, otherwise
// concurrent check-ins can race onto the same number.
type Service struct {
	visits repository.VisitRepository
	now    func() time.Time
}

func NewService(visits repository.VisitRepository) *Service {
	return &Service{
		visits: visits,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) NextToken(ctx context.Context, doctorID uuid.UUID, reset model.ResetFrequency) (int, error) {
	since := WindowStart(s.now(), reset)

	max, err := s.visits.MaxTokenSince(ctx, doctorID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate token: %w", err)
	}
	return max + 1, nil
}

// WindowStart computes the start of the current reset window:
// local midnight for daily, Monday midnight for weekly, first of the
// month for monthly, and the epoch for never.
func WindowStart(now time.Time, reset model.ResetFrequency) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch reset {
	case model.ResetWeekly:
		offset := int(now.Weekday()-time.Monday+7) % 7
		return midnight.AddDate(0, 0, -offset)
	case model.ResetMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case model.ResetNever:
		return time.Unix(0, 0)
	default:
		return midnight
	}
}
