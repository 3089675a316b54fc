package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListJobs returns the status of every registered job
func (a *API) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": a.sched.Status()})
}

// GetJob returns one job's status
func (a *API) GetJob(c *gin.Context) {
	name := c.Param("name")
	status, ok := a.sched.JobStatus(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// TriggerJob runs a registered job immediately and reports the outcome
func (a *API) TriggerJob(c *gin.Context) {
	name := c.Param("name")
	if err := a.sched.TriggerJob(name); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	status, _ := a.sched.JobStatus(name)
	c.JSON(http.StatusOK, gin.H{"triggered": name, "status": status})
}

// RunReminderSweep is the externally-triggered daily sweep endpoint used by
// hosted cron services.
func (a *API) RunReminderSweep(c *gin.Context) {
	sent := a.reminders.ProcessReminders(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"reminders_sent": sent})
}
