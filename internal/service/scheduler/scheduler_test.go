package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-queue/internal/model"
)

var now = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

func visit(priority model.VisitPriority, status model.VisitStatus, checkedIn time.Time) *model.Visit {
	v := &model.Visit{
		Status:      status,
		Priority:    priority,
		CheckedInAt: checkedIn,
	}
	v.ID = uuid.New()
	return v
}

func flatDuration(mins int) DurationFn {
	return func(*model.Visit) int { return mins }
}

func TestOrderEarlierArrivalWinsWithinTier(t *testing.T) {
	a := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-30*time.Minute))
	b := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-10*time.Minute))

	ranked := Order([]*model.Visit{b, a}, now)
	assert.Equal(t, a.ID, ranked[0].ID)
	assert.Equal(t, b.ID, ranked[1].ID)
}

func TestOrderVIPOutranksNormalButNotEarlierVIP(t *testing.T) {
	normal := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-90*time.Minute))
	vipLate := visit(model.VisitPriorityVIP, model.VisitStatusCheckedIn, now.Add(-5*time.Minute))
	vipEarly := visit(model.VisitPriorityVIP, model.VisitStatusCheckedIn, now.Add(-40*time.Minute))

	ranked := Order([]*model.Visit{normal, vipLate, vipEarly}, now)
	assert.Equal(t, vipEarly.ID, ranked[0].ID)
	assert.Equal(t, vipLate.ID, ranked[1].ID)
	assert.Equal(t, normal.ID, ranked[2].ID)
}

func TestOrderCarryoverOutranksSameTierToday(t *testing.T) {
	today := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-5*time.Minute))
	carried := visit(model.VisitPriorityNormal, model.VisitStatusCarryover, now.Add(-20*time.Hour))
	carried.Carryover = true

	ranked := Order([]*model.Visit{today, carried}, now)
	assert.Equal(t, carried.ID, ranked[0].ID)
}

func TestOrderUrgentScenario(t *testing.T) {
	// Doctor with 15-minute consultations; V1 normal at 09:00, V2
	// urgent at 09:05, nobody in service.
	v1 := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	v2 := visit(model.VisitPriorityUrgent, model.VisitStatusCheckedIn, time.Date(2024, 3, 5, 9, 5, 0, 0, time.UTC))
	all := []*model.Visit{v1, v2}

	ranked := Order(all, now)
	assert.Equal(t, v2.ID, ranked[0].ID)
	assert.Equal(t, v1.ID, ranked[1].ID)

	assert.Equal(t, 15, EstimateWait(v1, all, now, flatDuration(15)))
	assert.Equal(t, 0, EstimateWait(v2, all, now, flatDuration(15)))
}

func TestEstimateWaitFirstRankedIsZero(t *testing.T) {
	only := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-10*time.Minute))
	assert.Equal(t, 0, EstimateWait(only, []*model.Visit{only}, now, flatDuration(15)))
}

func TestEstimateWaitUsesRemainingForInProgress(t *testing.T) {
	started := now.Add(-10 * time.Minute)
	serving := visit(model.VisitPriorityVIP, model.VisitStatusInProgress, now.Add(-30*time.Minute))
	serving.StartedAt = &started
	waiting := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-5*time.Minute))

	// 15-minute consultations, 10 elapsed: 5 remaining.
	got := EstimateWait(waiting, []*model.Visit{serving, waiting}, now, flatDuration(15))
	assert.Equal(t, 5, got)
}

func TestEstimateWaitRemainingFloorsAtOne(t *testing.T) {
	started := now.Add(-time.Hour)
	serving := visit(model.VisitPriorityVIP, model.VisitStatusInProgress, now.Add(-2*time.Hour))
	serving.StartedAt = &started
	waiting := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-5*time.Minute))

	got := EstimateWait(waiting, []*model.Visit{serving, waiting}, now, flatDuration(15))
	assert.Equal(t, 1, got, "overrunning consultation still counts one minute")
}

func TestSnapshotPositionsAndWaits(t *testing.T) {
	v1 := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-20*time.Minute))
	v2 := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-10*time.Minute))
	v3 := visit(model.VisitPriorityNormal, model.VisitStatusCheckedIn, now.Add(-1*time.Minute))

	entries := Snapshot([]*model.Visit{v3, v1, v2}, now, flatDuration(10))
	assert.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, v1.ID, entries[0].Visit.ID)
	assert.Equal(t, 0, entries[0].EstimatedWaitMins)
	assert.Equal(t, 10, entries[1].EstimatedWaitMins)
	assert.Equal(t, 20, entries[2].EstimatedWaitMins)
}
