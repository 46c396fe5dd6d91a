// Package scheduler computes the total order of a live queue and the
// per-visit wait projection. The queue is never stored: callers pass
// the current non-terminal visit set and get a fresh ranking back, so
// every reader sees a consistent snapshot at its own read time.
package scheduler

import (
	"sort"
	"time"

	"github.com/jwalitptl/clinic-queue/internal/model"
)

// Priority weights. Higher composite score serves sooner. The aging
// term grows one point per minute waited, capped, so within a tier
// earlier arrivals rank ahead without ever outweighing a tier jump.
const (
	ScoreVIP       = 1000
	ScoreUrgent    = 900
	ScoreCarryover = 800
	ScoreCheckedIn = 100
	ScoreWaiting   = 50
	AgingCapMins   = 1000

	// A visit in service never contributes less than one remaining
	// minute to the waiters behind it.
	MinRemainingMins = 1
)

// DurationFn returns the effective consultation minutes for a visit
// (doctor override, else department config).
type DurationFn func(v *model.Visit) int

// Score computes the composite priority of one visit at the given
// instant.
func Score(v *model.Visit, now time.Time) int {
	score := 0

	switch v.Priority {
	case model.VisitPriorityVIP:
		score += ScoreVIP
	case model.VisitPriorityUrgent:
		score += ScoreUrgent
	}

	if v.Carryover || !sameDay(v.CheckedInAt, now) {
		score += ScoreCarryover
	}

	switch v.Status {
	case model.VisitStatusCheckedIn:
		score += ScoreCheckedIn
	case model.VisitStatusWaiting:
		score += ScoreWaiting
	}

	waited := int(now.Sub(v.CheckedInAt).Minutes())
	if waited > AgingCapMins {
		waited = AgingCapMins
	}
	if waited > 0 {
		score += waited
	}

	return score
}

// Order returns the visits ranked for service, highest score first.
// Ties keep check-in-time order. The input slice is not modified.
func Order(visits []*model.Visit, now time.Time) []*model.Visit {
	ranked := make([]*model.Visit, len(visits))
	copy(ranked, visits)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CheckedInAt.Before(ranked[j].CheckedInAt)
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i], now) > Score(ranked[j], now)
	})
	return ranked
}

// EstimateWait projects the minutes until the visit reaches service:
// the sum of effective durations of every other visit scoring at or
// above it. A visit already in service contributes only its remaining
// minutes. The projection is recomputed per query, never persisted.
func EstimateWait(v *model.Visit, visits []*model.Visit, now time.Time, duration DurationFn) int {
	own := Score(v, now)
	wait := 0

	for _, other := range visits {
		if other.ID == v.ID {
			continue
		}
		if Score(other, now) < own {
			continue
		}
		if other.Status == model.VisitStatusInProgress {
			wait += remainingMins(other, now, duration)
		} else {
			wait += duration(other)
		}
	}
	return wait
}

// Snapshot ranks the visits and annotates each entry with its position
// and wait projection.
func Snapshot(visits []*model.Visit, now time.Time, duration DurationFn) []*model.QueueEntry {
	ranked := Order(visits, now)

	entries := make([]*model.QueueEntry, 0, len(ranked))
	for i, v := range ranked {
		v.EstimatedWaitMins = EstimateWait(v, visits, now, duration)
		entries = append(entries, &model.QueueEntry{
			Visit:             v,
			Position:          i + 1,
			EstimatedWaitMins: v.EstimatedWaitMins,
		})
	}
	return entries
}

func remainingMins(v *model.Visit, now time.Time, duration DurationFn) int {
	elapsed := 0
	if v.StartedAt != nil {
		elapsed = int(now.Sub(*v.StartedAt).Minutes())
	}
	remaining := duration(v) - elapsed
	if remaining < MinRemainingMins {
		remaining = MinRemainingMins
	}
	return remaining
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
