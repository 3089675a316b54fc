package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"machcare/internal/models"
)

// GormUnitStore implements UnitStore over postgres
type GormUnitStore struct {
	db *gorm.DB
}

// NewGormUnitStore returns a unit store backed by the given connection
func NewGormUnitStore(db *gorm.DB) *GormUnitStore {
	return &GormUnitStore{db: db}
}

func (s *GormUnitStore) ListReminderCandidates(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	err := s.db.WithContext(ctx).
		Joins("JOIN sale ON sale.unit_serial = unit.serial_number").
		Where("sale.customer_email <> '' AND sale.reminder_opt_out = ?", false).
		Preload("Model").
		Preload("Sale").
		Preload("ServiceEvents").
		Preload("ServiceEvents.Visit").
		Find(&units).Error
	if err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}
	return units, nil
}

func (s *GormUnitStore) FindBySerial(ctx context.Context, serial string) (*models.Unit, error) {
	var unit models.Unit
	err := s.db.WithContext(ctx).
		Preload("Model").
		Preload("Sale").
		Preload("ServiceEvents").
		Preload("ServiceEvents.Visit").
		First(&unit, "serial_number = ?", serial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find unit %s: %w", serial, err)
	}
	return &unit, nil
}

// GormActionLogStore implements ActionLogStore over postgres. Deduplication
// of same-day reminders is enforced by the dispatcher's read-then-act logic,
// not by a database constraint; two overlapping sweeps can in principle both
// pass the check (documented race).
type GormActionLogStore struct {
	db *gorm.DB
}

// NewGormActionLogStore returns an action log store backed by the given
// connection
func NewGormActionLogStore(db *gorm.DB) *GormActionLogStore {
	return &GormActionLogStore{db: db}
}

func (s *GormActionLogStore) Create(ctx context.Context, entry *models.ActionLogEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append action log for %s: %w", entry.UnitSerial, err)
	}
	return nil
}

func (s *GormActionLogStore) LatestByUnitAndType(ctx context.Context, serial string, actionType models.ActionType) (*models.ActionLogEntry, error) {
	var entry models.ActionLogEntry
	err := s.db.WithContext(ctx).
		Where("unit_serial = ? AND action_type = ?", serial, actionType).
		Order("created_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s entry for %s: %w", actionType, serial, err)
	}
	return &entry, nil
}

func (s *GormActionLogStore) ListByUnit(ctx context.Context, serial string, limit int) ([]models.ActionLogEntry, error) {
	var entries []models.ActionLogEntry
	err := s.db.WithContext(ctx).
		Where("unit_serial = ?", serial).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list action log for %s: %w", serial, err)
	}
	return entries, nil
}
