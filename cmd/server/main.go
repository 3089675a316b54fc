package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"machcare/internal/config"
	"machcare/internal/database"
	"machcare/internal/handlers"
	"machcare/internal/scheduler"
	"machcare/internal/services"
	"machcare/internal/store"
)

// This is our main function - the entry point of our application
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.Timezone, err)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	units := store.NewGormUnitStore(db)
	logs := store.NewGormActionLogStore(db)

	mailer := services.NewEmailService(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	links := services.NewScheduleLinkSigner(cfg.ScheduleLinkSecret, cfg.ScheduleBaseURL, 7*24*time.Hour)
	reminders := services.NewReminderService(cfg, units, logs, mailer, links)
	healthReport := services.NewHealthReporter(cfg, units)

	// Daily sweep at 09:00, weekly fleet health summary early Sunday
	sched := scheduler.New(loc)
	if err := sched.Register("reminder-sweep", "0 9 * * *", func(ctx context.Context) error {
		reminders.ProcessReminders(ctx)
		return nil
	}); err != nil {
		log.Fatal(err)
	}
	if err := sched.Register("health-check", "0 2 * * 0", healthReport.Run); err != nil {
		log.Fatal(err)
	}

	api := handlers.NewAPI(cfg, sched, reminders, units, logs)

	// Initialize Gin router
	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1"})

	if len(cfg.CORSAllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
		router.Use(cors.New(corsCfg))
	}

	// Basic routes
	router.GET("/", api.HomeHandler)
	router.GET("/health", api.HealthHandler)

	// Public warranty status lookup
	router.GET("/api/units/:serial/status", api.UnitStatus)

	// Operational routes guarded by the cron secret
	ops := router.Group("/api")
	ops.Use(api.RequireCronSecret())
	{
		ops.GET("/jobs", api.ListJobs)
		ops.GET("/jobs/:name", api.GetJob)
		ops.POST("/jobs/:name/trigger", api.TriggerJob)
		ops.POST("/cron/reminders", api.RunReminderSweep)
		ops.GET("/units/:serial/actions", api.UnitActionLog)
		ops.POST("/units/:serial/test-reminder", api.TestReminder)
	}

	sched.Start()

	// Start the server
	fmt.Printf("Server starting on %s...\n", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
