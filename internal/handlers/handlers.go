package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"machcare/internal/config"
	"machcare/internal/scheduler"
	"machcare/internal/services"
	"machcare/internal/store"
	"machcare/internal/warranty"
)

// API holds the handler dependencies: everything is passed in explicitly,
// no package-level state.
type API struct {
	cfg       *config.Config
	sched     *scheduler.Scheduler
	reminders *services.ReminderService
	units     store.UnitStore
	logs      store.ActionLogStore
	calc      warranty.Calculator
	scorer    warranty.Scorer
	savings   warranty.Savings
}

// NewAPI wires the HTTP surface
func NewAPI(cfg *config.Config, sched *scheduler.Scheduler, reminders *services.ReminderService, units store.UnitStore, logs store.ActionLogStore) *API {
	calc := warranty.NewCalculator(cfg.ServiceIntervalMonths)
	return &API{
		cfg:       cfg,
		sched:     sched,
		reminders: reminders,
		units:     units,
		logs:      logs,
		calc:      calc,
		scorer:    warranty.NewScorer(calc),
		savings:   warranty.NewSavings(cfg.AvgPreventiveCost, cfg.AvgBreakdownCost),
	}
}

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	log.Printf("Error: %v", err)
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func (a *API) HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to MachCare!")
}

// HealthHandler is a simple health check endpoint
func (a *API) HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// RequireCronSecret guards the externally-triggered sweep and job endpoints
// with the shared CRON_SECRET.
func (a *API) RequireCronSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.cfg.CronSecret == "" || c.GetHeader("X-Cron-Secret") != a.cfg.CronSecret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
			return
		}
		c.Next()
	}
}
