package token

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/internal/repository"
)

type fakeVisitRepo struct {
	repository.VisitRepository

	tokens map[uuid.UUID][]tokenAt
}

type tokenAt struct {
	number int
	at     time.Time
}

func (f *fakeVisitRepo) MaxTokenSince(_ context.Context, doctorID uuid.UUID, since time.Time) (int, error) {
	max := 0
	for _, t := range f.tokens[doctorID] {
		if !t.at.Before(since) && t.number > max {
			max = t.number
		}
	}
	return max, nil
}

func TestNextTokenStartsAtOne(t *testing.T) {
	repo := &fakeVisitRepo{tokens: map[uuid.UUID][]tokenAt{}}
	svc := NewService(repo)

	n, err := svc.NextToken(context.Background(), uuid.New(), model.ResetDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNextTokenIncrementsWithinWindow(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	doctorID := uuid.New()
	repo := &fakeVisitRepo{tokens: map[uuid.UUID][]tokenAt{
		doctorID: {
			{number: 1, at: now.Add(-2 * time.Hour)},
			{number: 2, at: now.Add(-1 * time.Hour)},
		},
	}}
	svc := NewService(repo).WithClock(func() time.Time { return now })

	n, err := svc.NextToken(context.Background(), doctorID, model.ResetDaily)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNextTokenResetsAfterWindowRollover(t *testing.T) {
	doctorID := uuid.New()
	yesterday := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)
	today := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	repo := &fakeVisitRepo{tokens: map[uuid.UUID][]tokenAt{
		doctorID: {{number: 41, at: yesterday}},
	}}
	svc := NewService(repo).WithClock(func() time.Time { return today })

	n, err := svc.NextToken(context.Background(), doctorID, model.ResetDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "daily window rollover restarts numbering")

	// Under never, yesterday's tokens still count.
	n, err = svc.NextToken(context.Background(), doctorID, model.ResetNever)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestWindowStart(t *testing.T) {
	// Wednesday 2024-03-06.
	now := time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), WindowStart(now, model.ResetDaily))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WindowStart(now, model.ResetWeekly), "weekly window opens Monday")
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), WindowStart(now, model.ResetMonthly))
	assert.Equal(t, time.Unix(0, 0), WindowStart(now, model.ResetNever))

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WindowStart(sunday, model.ResetWeekly))
}
