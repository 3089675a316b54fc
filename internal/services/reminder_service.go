package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"machcare/internal/config"
	"machcare/internal/models"
	"machcare/internal/store"
	"machcare/internal/warranty"
)

// ReminderService runs the daily reminder sweep: it loads eligible units,
// gates each against the trigger-day schedule and the action-log dedup
// ledger, sends the email and appends a REMINDER_SENT entry on success.
// One unit's failure never aborts the sweep.
type ReminderService struct {
	units       store.UnitStore
	logs        store.ActionLogStore
	mailer      Mailer
	links       *ScheduleLinkSigner
	calc        warranty.Calculator
	scorer      warranty.Scorer
	savings     warranty.Savings
	eligibility warranty.Eligibility

	// Bounds each mail-transport call so one unresponsive send cannot
	// stall the whole sweep.
	sendTimeout time.Duration

	now func() time.Time
}

// NewReminderService wires the dispatcher from its collaborators
func NewReminderService(cfg *config.Config, units store.UnitStore, logs store.ActionLogStore, mailer Mailer, links *ScheduleLinkSigner) *ReminderService {
	calc := warranty.NewCalculator(cfg.ServiceIntervalMonths)
	return &ReminderService{
		units:       units,
		logs:        logs,
		mailer:      mailer,
		links:       links,
		calc:        calc,
		scorer:      warranty.NewScorer(calc),
		savings:     warranty.NewSavings(cfg.AvgPreventiveCost, cfg.AvgBreakdownCost),
		eligibility: warranty.NewEligibility(calc, cfg.ReminderTriggerDays),
		sendTimeout: 30 * time.Second,
		now:         time.Now,
	}
}

// ProcessReminders runs one sweep over every reminder candidate and returns
// the number of reminders actually sent. Store failures are logged and
// yield a zero count so a scheduled tick never crashes the scheduler.
func (s *ReminderService) ProcessReminders(ctx context.Context) int {
	today := s.now()

	units, err := s.units.ListReminderCandidates(ctx)
	if err != nil {
		log.Printf("Reminder sweep aborted, candidate query failed: %v", err)
		return 0
	}

	sent := 0
	for _, unit := range units {
		if !s.calc.IsWarrantyActive(unit, today) {
			continue
		}

		last, err := s.logs.LatestByUnitAndType(ctx, unit.SerialNumber, models.ActionReminderSent)
		if err != nil {
			log.Printf("Skipping unit %s, dedup lookup failed: %v", unit.SerialNumber, err)
			continue
		}
		var lastAt *time.Time
		if last != nil {
			lastAt = &last.CreatedAt
		}

		if !s.eligibility.ShouldSendReminder(unit, lastAt, today) {
			continue
		}

		if s.sendOne(ctx, unit, today) {
			sent++
		}
	}

	log.Printf("Reminder sweep done: %d/%d candidates reminded", sent, len(units))
	return sent
}

// SendReminder sends one reminder for a unit right now, bypassing the
// trigger-day and dedup gates. Used for ad-hoc test sends.
func (s *ReminderService) SendReminder(ctx context.Context, unit models.Unit) bool {
	return s.sendOne(ctx, unit, s.now())
}

func (s *ReminderService) sendOne(ctx context.Context, unit models.Unit, today time.Time) bool {
	if unit.Sale == nil || unit.Sale.CustomerEmail == "" {
		return false
	}

	days := 0
	if d, ok := s.calc.DaysUntilService(unit, today); ok {
		days = d
	}
	score := s.scorer.HealthScore(unit, today)
	saved := s.savings.TotalSavings(unit)
	urgency := warranty.UrgencyFor(days)
	expiry, _ := s.calc.WarrantyExpiry(unit)

	scheduleURL, err := s.links.SignedURL(unit.SerialNumber)
	if err != nil {
		log.Printf("Failed to build schedule link for unit %s: %v", unit.SerialNumber, err)
		return false
	}

	data := ReminderEmailData{
		CustomerName:     unit.Sale.CustomerName,
		MachineName:      unit.Model.Name,
		SerialNumber:     unit.SerialNumber,
		DaysUntilService: days,
		HealthScore:      score,
		TotalSavings:     saved,
		WarrantyActive:   s.calc.IsWarrantyActive(unit, today),
		WarrantyExpiry:   expiry,
		ScheduleURL:      scheduleURL,
		Recipient:        unit.Sale.CustomerEmail,
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.mailer.SendServiceReminder(sendCtx, data); err != nil {
		log.Printf("Failed to send reminder for unit %s: %v", unit.SerialNumber, err)
		return false
	}

	metadata, _ := json.Marshal(map[string]any{
		"days_until_service": days,
		"health_score":       score,
		"urgency":            urgency,
		"recipient":          unit.Sale.CustomerEmail,
	})
	entry := &models.ActionLogEntry{
		UnitSerial: unit.SerialNumber,
		ActionType: models.ActionReminderSent,
		Channel:    models.ChannelEmail,
		Metadata:   metadata,
		CreatedAt:  today,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		// The email went out; a failed ledger write only weakens dedup
		// until the next successful one.
		log.Printf("Reminder sent but action log write failed for unit %s: %v", unit.SerialNumber, err)
	}

	log.Printf("Sent %s reminder for unit %s to %s", urgency, unit.SerialNumber, unit.Sale.CustomerEmail)
	return true
}
