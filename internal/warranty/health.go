package warranty

import (
	"time"

	"machcare/internal/models"
)

// RiskLevel classifies a health score
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// UrgencyLevel classifies how close a unit is to its next service
type UrgencyLevel string

const (
	UrgencyOverdue  UrgencyLevel = "OVERDUE"
	UrgencyUrgent   UrgencyLevel = "URGENT"
	UrgencySoon     UrgencyLevel = "SOON"
	UrgencyUpcoming UrgencyLevel = "UPCOMING"
)

// Scorer computes the 0-100 maintenance health score for a unit.
type Scorer struct {
	calc Calculator
}

// NewScorer returns a scorer sharing the calculator's ladder configuration.
func NewScorer(calc Calculator) Scorer {
	return Scorer{calc: calc}
}

// HealthScore starts at 100 and applies a service-timeliness penalty, a
// completion-rate penalty and a small age bonus for sustained compliance.
// A unit without a sale scores 0.
func (s Scorer) HealthScore(unit models.Unit, today time.Time) int {
	if unit.Sale == nil {
		return 0
	}

	score := 100

	if days, ok := s.calc.DaysUntilService(unit, today); ok {
		score -= timelinessPenalty(days)
	}

	completed := unit.CompletedServiceCount()
	expected := s.expectedServiceCount(unit, today)
	if expected > 0 {
		score -= completionPenalty(float64(completed) / float64(expected))
	}

	ageMonths := monthsBetween(unit.Sale.SaleDate, today)
	if ageMonths > 6 && completed >= expected {
		bonus := ageMonths
		if bonus > 10 {
			bonus = 10
		}
		score += bonus
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// expectedServiceCount is how many ladder intervals should have elapsed
// since sale. For a lapsed warranty the count is derived from the warranty
// period itself rather than from months elapsed, so long-dead units are not
// expected to have serviced forever.
func (s Scorer) expectedServiceCount(unit models.Unit, today time.Time) int {
	if unit.Sale == nil {
		return 0
	}
	if !s.calc.IsWarrantyActive(unit, today) {
		return unit.Model.WarrantyMonths / s.calc.intervalMonths
	}
	return monthsBetween(unit.Sale.SaleDate, today) / s.calc.intervalMonths
}

func timelinessPenalty(daysUntilService int) int {
	switch {
	case daysUntilService < -30:
		return 40
	case daysUntilService < -14:
		return 30
	case daysUntilService < -7:
		return 20
	case daysUntilService < 0:
		return 10
	case daysUntilService <= 7:
		return 5
	default:
		return 0
	}
}

func completionPenalty(ratio float64) int {
	switch {
	case ratio < 0.5:
		return 40
	case ratio < 0.75:
		return 25
	case ratio < 1.0:
		return 10
	default:
		return 0
	}
}

// RiskFor maps a health score to a risk level
func RiskFor(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskLow
	case score >= 60:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// UrgencyFor maps days-until-service to an urgency level
func UrgencyFor(daysUntilService int) UrgencyLevel {
	switch {
	case daysUntilService <= 0:
		return UrgencyOverdue
	case daysUntilService <= 3:
		return UrgencyUrgent
	case daysUntilService <= 7:
		return UrgencySoon
	default:
		return UrgencyUpcoming
	}
}
