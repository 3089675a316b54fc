package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"machcare/internal/models"
	"machcare/internal/utils"
	"machcare/internal/warranty"
)

// UnitStatus returns the derived warranty/health/savings snapshot for one
// unit and records a WARRANTY_VIEWED action-log entry.
func (a *API) UnitStatus(c *gin.Context) {
	serial := c.Param("serial")

	unit, err := a.units.FindBySerial(c.Request.Context(), serial)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load unit", err)
		return
	}
	if unit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unit not found"})
		return
	}

	today := time.Now()
	resp := gin.H{
		"serial_number":   unit.SerialNumber,
		"model":           unit.Model.Name,
		"warranty_active": false,
	}

	if unit.Sale != nil {
		expiry, _ := a.calc.WarrantyExpiry(*unit)
		score := a.scorer.HealthScore(*unit, today)
		resp["warranty_active"] = a.calc.IsWarrantyActive(*unit, today)
		resp["warranty_expiry"] = expiry
		resp["service_dates"] = a.calc.AllServiceDates(*unit)
		resp["health_score"] = score
		resp["risk_level"] = warranty.RiskFor(score)
		resp["total_savings"] = a.savings.TotalSavings(*unit)
		if due, ok := a.calc.NextServiceDue(*unit, today); ok {
			days, _ := a.calc.DaysUntilService(*unit, today)
			resp["next_service_due"] = due
			resp["days_until_service"] = days
			resp["urgency"] = warranty.UrgencyFor(days)
		}
	}

	metadata, _ := json.Marshal(map[string]any{"ip": utils.GetRealClientIP(c)})
	entry := &models.ActionLogEntry{
		UnitSerial: unit.SerialNumber,
		ActionType: models.ActionWarrantyViewed,
		Channel:    models.ChannelWeb,
		Metadata:   metadata,
	}
	if err := a.logs.Create(c.Request.Context(), entry); err != nil {
		log.Printf("Failed to log warranty view for unit %s: %v", unit.SerialNumber, err)
	}

	c.JSON(http.StatusOK, resp)
}

// TestReminder sends an ad-hoc reminder for one unit, bypassing the
// trigger-day and dedup gates.
func (a *API) TestReminder(c *gin.Context) {
	serial := c.Param("serial")

	unit, err := a.units.FindBySerial(c.Request.Context(), serial)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load unit", err)
		return
	}
	if unit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unit not found"})
		return
	}

	sent := a.reminders.SendReminder(c.Request.Context(), *unit)
	if !sent {
		c.JSON(http.StatusBadGateway, gin.H{"sent": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// UnitActionLog returns a unit's recent action history, newest first
func (a *API) UnitActionLog(c *gin.Context) {
	serial := c.Param("serial")
	entries, err := a.logs.ListByUnit(c.Request.Context(), serial, 50)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load action log", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
