// Package warranty contains the pure calculation layer of the reminder
// engine: warranty expiry and service-ladder derivation, health scoring,
// savings estimation and reminder trigger-day eligibility. Nothing in this
// package touches the store or the network; every operation takes an
// explicit "today" so a whole sweep is evaluated at one consistent instant.
package warranty

import (
	"time"

	"machcare/internal/models"
)

// Calculator derives warranty and service-ladder state from a unit's sale
// date and its model's warranty period.
type Calculator struct {
	intervalMonths int
}

// NewCalculator returns a calculator with the configured service interval
// between ladder dates.
func NewCalculator(intervalMonths int) Calculator {
	return Calculator{intervalMonths: intervalMonths}
}

// WarrantyExpiry returns saleDate + warrantyMonths. The second return is
// false for a unit without a sale.
func (c Calculator) WarrantyExpiry(unit models.Unit) (time.Time, bool) {
	if unit.Sale == nil {
		return time.Time{}, false
	}
	return addMonths(unit.Sale.SaleDate, unit.Model.WarrantyMonths), true
}

// IsWarrantyActive reports whether the warranty covers today, compared at
// day granularity: a warranty expiring today is still active.
func (c Calculator) IsWarrantyActive(unit models.Unit, today time.Time) bool {
	expiry, ok := c.WarrantyExpiry(unit)
	if !ok {
		return false
	}
	return !startOfDay(today).After(startOfDay(expiry))
}

// AllServiceDates returns the ladder saleDate + k*interval for k = 1, 2, ...
// while the date stays at or before warranty expiry. Empty for a unit
// without a sale.
func (c Calculator) AllServiceDates(unit models.Unit) []time.Time {
	expiry, ok := c.WarrantyExpiry(unit)
	if !ok {
		return nil
	}
	var dates []time.Time
	for k := 1; ; k++ {
		d := addMonths(unit.Sale.SaleDate, k*c.intervalMonths)
		if startOfDay(d).After(startOfDay(expiry)) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

// NextServiceDue walks the ladder and returns the service date the unit
// should act on. An overdue ladder date takes priority over any future one:
// a unit that missed a service keeps showing that missed date until it is
// handled, instead of silently advancing to the next slot. Returns false
// when the warranty is not active or the ladder is empty.
func (c Calculator) NextServiceDue(unit models.Unit, today time.Time) (time.Time, bool) {
	if !c.IsWarrantyActive(unit, today) {
		return time.Time{}, false
	}

	day := startOfDay(today)
	var lastOverdue, firstUpcoming time.Time
	for _, d := range c.AllServiceDates(unit) {
		if startOfDay(d).Before(day) {
			lastOverdue = d
		} else if firstUpcoming.IsZero() {
			firstUpcoming = d
		}
	}
	if !lastOverdue.IsZero() {
		return lastOverdue, true
	}
	if !firstUpcoming.IsZero() {
		return firstUpcoming, true
	}
	return time.Time{}, false
}

// DaysUntilService returns the day-truncated distance from today to the
// next service due date. Negative means overdue.
func (c Calculator) DaysUntilService(unit models.Unit, today time.Time) (int, bool) {
	due, ok := c.NextServiceDue(unit, today)
	if !ok {
		return 0, false
	}
	return daysBetween(today, due), true
}

// startOfDay truncates a time to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// addMonths performs calendar month addition, preserving the day of month
// and clamping to the last day of the target month when the source day
// does not exist there (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	h, min, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, h, min, sec, t.Nanosecond(), t.Location())
}

// daysBetween counts whole calendar days from one date to another, both
// truncated to start of day. Rounding absorbs DST shifts.
func daysBetween(from, to time.Time) int {
	d := startOfDay(to).Sub(startOfDay(from))
	days := d.Hours() / 24
	if days >= 0 {
		return int(days + 0.5)
	}
	return int(days - 0.5)
}

// monthsBetween counts whole calendar months elapsed from one date to
// another, honoring the same end-of-month clamping as addMonths: for a
// sale on Jan 31, Feb 28 counts as one full month.
func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months < 0 {
		return 0
	}
	lastDay := startOfDay(time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, to.Location()).AddDate(0, 1, -1)).Day()
	anniversary := from.Day()
	if anniversary > lastDay {
		anniversary = lastDay
	}
	if to.Day() < anniversary {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
