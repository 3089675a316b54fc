package warranty

import "machcare/internal/models"

// Savings estimates money saved by preventive maintenance: every completed
// service visit is assumed to have averted one breakdown.
type Savings struct {
	preventiveCost int64
	breakdownCost  int64
}

// NewSavings returns a savings calculator with the configured average costs.
func NewSavings(preventiveCost, breakdownCost int64) Savings {
	return Savings{preventiveCost: preventiveCost, breakdownCost: breakdownCost}
}

// TotalSavings is completedVisits x (avgBreakdownCost - avgPreventiveCost).
// Pending, in-progress and cancelled visits contribute nothing.
func (s Savings) TotalSavings(unit models.Unit) int64 {
	return int64(unit.CompletedServiceCount()) * (s.breakdownCost - s.preventiveCost)
}
