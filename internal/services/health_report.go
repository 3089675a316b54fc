package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"machcare/internal/config"
	"machcare/internal/store"
	"machcare/internal/warranty"
)

// HealthReporter backs the weekly health-check job: it scores the active
// fleet and logs a risk breakdown for the operators.
type HealthReporter struct {
	units  store.UnitStore
	calc   warranty.Calculator
	scorer warranty.Scorer
	now    func() time.Time
}

// NewHealthReporter wires the weekly fleet health summary
func NewHealthReporter(cfg *config.Config, units store.UnitStore) *HealthReporter {
	calc := warranty.NewCalculator(cfg.ServiceIntervalMonths)
	return &HealthReporter{
		units:  units,
		calc:   calc,
		scorer: warranty.NewScorer(calc),
		now:    time.Now,
	}
}

// Run scores every unit under active warranty and logs counts per risk level
func (r *HealthReporter) Run(ctx context.Context) error {
	today := r.now()

	units, err := r.units.ListReminderCandidates(ctx)
	if err != nil {
		return fmt.Errorf("fleet health check: %w", err)
	}

	counts := map[warranty.RiskLevel]int{}
	active := 0
	for _, unit := range units {
		if !r.calc.IsWarrantyActive(unit, today) {
			continue
		}
		active++
		counts[warranty.RiskFor(r.scorer.HealthScore(unit, today))]++
	}

	log.Printf("Fleet health: %d active units, %d low / %d medium / %d high risk",
		active, counts[warranty.RiskLow], counts[warranty.RiskMedium], counts[warranty.RiskHigh])
	return nil
}
