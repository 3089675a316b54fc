// Package store is the durable persistence boundary of the reminder engine.
// The engine only ever reads units and appends action-log entries; all other
// writes belong to the admin surfaces outside this subsystem.
package store

import (
	"context"

	"machcare/internal/models"
)

// UnitStore reads units and their sale/service history
type UnitStore interface {
	// ListReminderCandidates returns every unit with a sale, a non-empty
	// customer email and reminders not opted out, with model, sale and
	// service history loaded.
	ListReminderCandidates(ctx context.Context) ([]models.Unit, error)

	// FindBySerial loads one unit with its full history, or nil when the
	// serial is unknown.
	FindBySerial(ctx context.Context, serial string) (*models.Unit, error)
}

// ActionLogStore appends to and queries the append-only action log
type ActionLogStore interface {
	// Create appends one entry. Entries are never updated or deleted.
	Create(ctx context.Context, entry *models.ActionLogEntry) error

	// LatestByUnitAndType returns the newest entry of the given type for a
	// unit, or nil when none exists.
	LatestByUnitAndType(ctx context.Context, serial string, actionType models.ActionType) (*models.ActionLogEntry, error)

	// ListByUnit returns up to limit entries for a unit, newest first.
	ListByUnit(ctx context.Context, serial string, limit int) ([]models.ActionLogEntry, error)
}
