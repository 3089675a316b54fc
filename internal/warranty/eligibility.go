package warranty

import (
	"time"

	"machcare/internal/models"
)

// Eligibility decides whether a reminder fires for a unit today. The
// schedule is deliberately sparse: reminders only fire on the configured
// trigger-day offsets relative to the next service due date, and a missed
// sweep day is never backfilled.
type Eligibility struct {
	calc        Calculator
	triggerDays map[int]struct{}
}

// NewEligibility returns an eligibility checker for the given trigger-day
// offsets (negative means days past due).
func NewEligibility(calc Calculator, triggerDays []int) Eligibility {
	set := make(map[int]struct{}, len(triggerDays))
	for _, d := range triggerDays {
		set[d] = struct{}{}
	}
	return Eligibility{calc: calc, triggerDays: set}
}

// ShouldSendReminder reports whether today is a trigger day for the unit
// and no reminder has been sent yet today. lastReminder is the timestamp of
// the unit's most recent REMINDER_SENT log entry, nil if there is none.
func (e Eligibility) ShouldSendReminder(unit models.Unit, lastReminder *time.Time, today time.Time) bool {
	days, ok := e.calc.DaysUntilService(unit, today)
	if !ok {
		return false
	}
	if _, hit := e.triggerDays[days]; !hit {
		return false
	}
	if lastReminder != nil && sameDay(*lastReminder, today) {
		return false
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
