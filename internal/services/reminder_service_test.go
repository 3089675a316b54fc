package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"machcare/internal/config"
	"machcare/internal/models"
)

// ===================== store mocks =========================

type mockUnitStore struct {
	units   []models.Unit
	listErr error
}

func (m *mockUnitStore) ListReminderCandidates(ctx context.Context) ([]models.Unit, error) {
	return m.units, m.listErr
}

func (m *mockUnitStore) FindBySerial(ctx context.Context, serial string) (*models.Unit, error) {
	for i := range m.units {
		if m.units[i].SerialNumber == serial {
			return &m.units[i], nil
		}
	}
	return nil, nil
}

type mockActionLog struct {
	entries   []models.ActionLogEntry
	createErr error
}

func (m *mockActionLog) Create(ctx context.Context, entry *models.ActionLogEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActionLog) LatestByUnitAndType(ctx context.Context, serial string, actionType models.ActionType) (*models.ActionLogEntry, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UnitSerial == serial && m.entries[i].ActionType == actionType {
			entry := m.entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (m *mockActionLog) ListByUnit(ctx context.Context, serial string, limit int) ([]models.ActionLogEntry, error) {
	var out []models.ActionLogEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].UnitSerial == serial {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

type mockMailer struct {
	sent    []ReminderEmailData
	failFor map[string]bool
}

func (m *mockMailer) SendServiceReminder(ctx context.Context, data ReminderEmailData) error {
	if m.failFor[data.SerialNumber] {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, data)
	return nil
}

// ===================== fixtures =========================

var testToday = time.Date(2024, time.August, 28, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		ServiceIntervalMonths: 3,
		ReminderTriggerDays:   config.DefaultTriggerDays,
		AvgPreventiveCost:     15000,
		AvgBreakdownCost:      200000,
	}
}

func newTestService(units *mockUnitStore, logs *mockActionLog, mailer *mockMailer) *ReminderService {
	links := NewScheduleLinkSigner("test-secret", "https://machcare.test", time.Hour)
	svc := NewReminderService(testConfig(), units, logs, mailer, links)
	svc.now = func() time.Time { return testToday }
	return svc
}

// unitDueIn builds a sold unit whose first service date lands the given
// number of days from the fixed test date.
func unitDueIn(serial string, days int) models.Unit {
	due := testToday.AddDate(0, 0, days)
	return models.Unit{
		SerialNumber: serial,
		Model:        models.MachineModel{Name: "AquaPure 900", WarrantyMonths: 12},
		Sale: &models.Sale{
			SaleDate:      due.AddDate(0, -3, 0),
			CustomerName:  "Asha Nair",
			CustomerEmail: fmt.Sprintf("%s@example.com", serial),
		},
	}
}

// ===================== tests =========================

func TestProcessRemindersTriggerDaysOnly(t *testing.T) {
	units := &mockUnitStore{units: []models.Unit{
		unitDueIn("MC-15", 15),
		unitDueIn("MC-07", 7),
		unitDueIn("MC-03", 3),
		unitDueIn("MC-N3", -3),
		unitDueIn("MC-10", 10),
	}}
	logs := &mockActionLog{}
	mailer := &mockMailer{}
	svc := newTestService(units, logs, mailer)

	sent := svc.ProcessReminders(context.Background())

	assert.Equal(t, 4, sent)
	require.Len(t, logs.entries, 4)
	require.Len(t, mailer.sent, 4)
	for _, data := range mailer.sent {
		assert.NotEqual(t, "MC-10", data.SerialNumber, "a unit due in 10 days is not on a trigger day")
	}
}

func TestProcessRemindersIdempotentSameDay(t *testing.T) {
	units := &mockUnitStore{units: []models.Unit{
		unitDueIn("MC-15", 15),
		unitDueIn("MC-07", 7),
	}}
	logs := &mockActionLog{}
	mailer := &mockMailer{}
	svc := newTestService(units, logs, mailer)

	assert.Equal(t, 2, svc.ProcessReminders(context.Background()))
	assert.Equal(t, 0, svc.ProcessReminders(context.Background()), "second sweep the same day sends nothing")
	assert.Len(t, logs.entries, 2)
	assert.Len(t, mailer.sent, 2)
}

func TestProcessRemindersNextDayAfterDedup(t *testing.T) {
	unit := unitDueIn("MC-07", 7)
	logs := &mockActionLog{entries: []models.ActionLogEntry{{
		UnitSerial: unit.SerialNumber,
		ActionType: models.ActionReminderSent,
		Channel:    models.ChannelEmail,
		CreatedAt:  testToday.AddDate(0, 0, -1),
	}}}
	mailer := &mockMailer{}
	svc := newTestService(&mockUnitStore{units: []models.Unit{unit}}, logs, mailer)

	assert.Equal(t, 1, svc.ProcessReminders(context.Background()), "yesterday's entry does not block today")
}

func TestProcessRemindersFailureIsolation(t *testing.T) {
	units := &mockUnitStore{units: []models.Unit{
		unitDueIn("MC-A", 7),
		unitDueIn("MC-B", 7),
		unitDueIn("MC-C", 7),
	}}
	logs := &mockActionLog{}
	mailer := &mockMailer{failFor: map[string]bool{"MC-B": true}}
	svc := newTestService(units, logs, mailer)

	sent := svc.ProcessReminders(context.Background())

	assert.Equal(t, 2, sent)
	require.Len(t, logs.entries, 2)
	for _, entry := range logs.entries {
		assert.NotEqual(t, "MC-B", entry.UnitSerial, "a failed send must not be logged")
	}
}

func TestProcessRemindersStoreFailure(t *testing.T) {
	units := &mockUnitStore{listErr: errors.New("connection refused")}
	svc := newTestService(units, &mockActionLog{}, &mockMailer{})

	assert.Equal(t, 0, svc.ProcessReminders(context.Background()))
}

func TestProcessRemindersSkipsExpiredWarranty(t *testing.T) {
	expired := models.Unit{
		SerialNumber: "MC-OLD",
		Model:        models.MachineModel{Name: "AquaPure 900", WarrantyMonths: 12},
		Sale: &models.Sale{
			SaleDate:      testToday.AddDate(-3, 0, 0),
			CustomerName:  "Asha Nair",
			CustomerEmail: "old@example.com",
		},
	}
	logs := &mockActionLog{}
	mailer := &mockMailer{}
	svc := newTestService(&mockUnitStore{units: []models.Unit{expired}}, logs, mailer)

	assert.Equal(t, 0, svc.ProcessReminders(context.Background()))
	assert.Empty(t, logs.entries)
}

func TestReminderLogEntryContents(t *testing.T) {
	units := &mockUnitStore{units: []models.Unit{unitDueIn("MC-07", 7)}}
	logs := &mockActionLog{}
	mailer := &mockMailer{}
	svc := newTestService(units, logs, mailer)

	require.Equal(t, 1, svc.ProcessReminders(context.Background()))

	entry := logs.entries[0]
	assert.Equal(t, "MC-07", entry.UnitSerial)
	assert.Equal(t, models.ActionReminderSent, entry.ActionType)
	assert.Equal(t, models.ChannelEmail, entry.Channel)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(entry.Metadata, &metadata))
	assert.Equal(t, "MC-07@example.com", metadata["recipient"])
	assert.Equal(t, "SOON", metadata["urgency"])
	assert.EqualValues(t, 7, metadata["days_until_service"])
}

func TestReminderEmailDataComputed(t *testing.T) {
	units := &mockUnitStore{units: []models.Unit{unitDueIn("MC-03", 3)}}
	mailer := &mockMailer{}
	svc := newTestService(units, &mockActionLog{}, mailer)

	require.Equal(t, 1, svc.ProcessReminders(context.Background()))

	data := mailer.sent[0]
	assert.Equal(t, "Asha Nair", data.CustomerName)
	assert.Equal(t, "AquaPure 900", data.MachineName)
	assert.Equal(t, 3, data.DaysUntilService)
	assert.True(t, data.WarrantyActive)
	assert.Contains(t, data.ScheduleURL, "https://machcare.test/schedule?token=")
	assert.Greater(t, data.HealthScore, 0)
}

func TestSendReminderBypassesDedup(t *testing.T) {
	unit := unitDueIn("MC-10", 10)
	logs := &mockActionLog{}
	mailer := &mockMailer{}
	svc := newTestService(&mockUnitStore{}, logs, mailer)

	// Off-trigger-day unit, sent twice in one day: both go through
	assert.True(t, svc.SendReminder(context.Background(), unit))
	assert.True(t, svc.SendReminder(context.Background(), unit))
	assert.Len(t, logs.entries, 2)
}

func TestSendReminderRequiresSale(t *testing.T) {
	svc := newTestService(&mockUnitStore{}, &mockActionLog{}, &mockMailer{})
	unsold := models.Unit{SerialNumber: "MC-NEW", Model: models.MachineModel{WarrantyMonths: 12}}

	assert.False(t, svc.SendReminder(context.Background(), unsold))
}
