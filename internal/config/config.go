package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DBConfig holds the postgres connection settings. In release mode a full
// DATABASE_URL takes precedence over the individual fields.
type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Config is the process configuration, loaded once at startup and passed
// into the constructors that need it.
type Config struct {
	HTTPAddr string
	DB       DBConfig

	SendGridAPIKey string
	FromEmail      string
	FromName       string

	// Warranty engine knobs
	ServiceIntervalMonths int
	ReminderTriggerDays   []int
	AvgPreventiveCost     int64
	AvgBreakdownCost      int64

	// Shared secret for the externally-triggered sweep/trigger endpoints
	CronSecret string

	// Signed scheduling links embedded in reminder emails
	ScheduleLinkSecret string
	ScheduleBaseURL    string

	// Fixed named timezone all cron schedules and day arithmetic run in
	Timezone string

	CORSAllowedOrigins []string
}

// DefaultTriggerDays are the offsets, in days relative to the next service
// due date, on which a reminder may fire. Negative means days past due.
var DefaultTriggerDays = []int{15, 7, 3, 0, -3}

// Load reads configuration from the environment, consulting a local .env
// file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
		DB: DBConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME", "machcare"),
			SSLMode:  getenv("DB_SSL_MODE", "disable"),
		},
		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		FromEmail:          getenv("SENDGRID_FROM_EMAIL", "care@machcare.in"),
		FromName:           getenv("SENDGRID_FROM_NAME", "MachCare Service"),
		CronSecret:         os.Getenv("CRON_SECRET"),
		ScheduleLinkSecret: os.Getenv("SCHEDULE_LINK_SECRET"),
		ScheduleBaseURL:    getenv("SCHEDULE_BASE_URL", "https://machcare.in"),
		Timezone:           getenv("TIMEZONE", "Asia/Kolkata"),
	}

	var err error
	if cfg.ServiceIntervalMonths, err = getenvInt("SERVICE_INTERVAL_MONTHS", 3); err != nil {
		return nil, err
	}
	if cfg.AvgPreventiveCost, err = getenvInt64("AVG_PREVENTIVE_COST", 15000); err != nil {
		return nil, err
	}
	if cfg.AvgBreakdownCost, err = getenvInt64("AVG_BREAKDOWN_COST", 200000); err != nil {
		return nil, err
	}
	if cfg.ServiceIntervalMonths <= 0 {
		return nil, fmt.Errorf("SERVICE_INTERVAL_MONTHS must be positive, got %d", cfg.ServiceIntervalMonths)
	}

	cfg.ReminderTriggerDays, err = parseTriggerDays(os.Getenv("REMINDER_TRIGGER_DAYS"))
	if err != nil {
		return nil, err
	}

	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

// parseTriggerDays parses a comma-separated list like "15,7,3,0,-3".
// An empty value falls back to the default trigger set.
func parseTriggerDays(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		days := make([]int, len(DefaultTriggerDays))
		copy(days, DefaultTriggerDays)
		return days, nil
	}
	var days []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_TRIGGER_DAYS entry %q: %w", part, err)
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("REMINDER_TRIGGER_DAYS parsed to an empty set: %q", raw)
	}
	return days, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvInt64(key string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
