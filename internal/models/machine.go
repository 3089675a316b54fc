package models

import (
	"time"

	"gorm.io/gorm"
)

// VisitStatus represents the lifecycle state of a scheduled service visit
type VisitStatus string

const (
	VisitPending    VisitStatus = "PENDING"
	VisitInProgress VisitStatus = "IN_PROGRESS"
	VisitCompleted  VisitStatus = "COMPLETED"
	VisitCancelled  VisitStatus = "CANCELLED"
)

// MachineModel represents a product line with a fixed warranty period.
// A unit's warranty period is captured through its model at sale time;
// editing the model later does not rewrite history for already-sold units.
type MachineModel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	WarrantyMonths int       `gorm:"not null;default:12" json:"warranty_months"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// Unit represents a sold/serviced machine tracked by serial number
type Unit struct {
	SerialNumber  string         `gorm:"primaryKey;size:50;not null" json:"serial_number" binding:"required"`
	ModelID       uint           `gorm:"not null;index" json:"model_id"`
	Model         MachineModel   `gorm:"foreignKey:ModelID" json:"model"`
	Sale          *Sale          `gorm:"foreignKey:UnitSerial" json:"sale,omitempty"`
	ServiceEvents []ServiceEvent `gorm:"foreignKey:UnitSerial" json:"service_events"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Sale records the sale of a unit to a customer. A unit without a Sale
// has no warranty state.
type Sale struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UnitSerial     string    `gorm:"size:50;not null;uniqueIndex" json:"unit_serial"`
	SaleDate       time.Time `gorm:"not null" json:"sale_date"`
	CustomerName   string    `gorm:"size:100;not null" json:"customer_name"`
	CustomerEmail  string    `gorm:"size:255;index" json:"customer_email"`
	ReminderOptOut bool      `gorm:"not null;default:false" json:"reminder_opt_out"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// ServiceEvent is one scheduled or requested service for a unit, optionally
// linked to the technician visit that fulfilled it
type ServiceEvent struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UnitSerial string    `gorm:"size:50;not null;index" json:"unit_serial"`
	Visit      *Visit    `gorm:"foreignKey:ServiceEventID" json:"visit,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// Visit is the technician visit fulfilling a service event
type Visit struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ServiceEventID uint        `gorm:"not null;uniqueIndex" json:"service_event_id"`
	Status         VisitStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	VisitDate      time.Time   `json:"visit_date"`
	CreatedAt      time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook is called before creating a new unit
func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	return nil
}

// CompletedServiceCount returns how many of the unit's service events were
// fulfilled by a completed visit
func (u *Unit) CompletedServiceCount() int {
	count := 0
	for _, ev := range u.ServiceEvents {
		if ev.Visit != nil && ev.Visit.Status == VisitCompleted {
			count++
		}
	}
	return count
}

// TableName specifies the table name for the MachineModel model
func (MachineModel) TableName() string {
	return "machine_model"
}

// TableName specifies the table name for the Unit model
func (Unit) TableName() string {
	return "unit"
}

// TableName specifies the table name for the Sale model
func (Sale) TableName() string {
	return "sale"
}

// TableName specifies the table name for the ServiceEvent model
func (ServiceEvent) TableName() string {
	return "service_event"
}

// TableName specifies the table name for the Visit model
func (Visit) TableName() string {
	return "visit"
}
