// Package reminder implements the scheduled email reminder job: it scans
// user profiles, finds users who opted in and have no diary entry today in
// their own timezone, and nudges them by email.
package reminder

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the env-driven settings of the reminder job. The job is meant
// to run from cron, so unlike the server there is no JSON or flag layer.
type Config struct {
	DatabaseDSN    string
	SendgridAPIKey string
	FromEmail      string
	DefaultTZ      string
	AppURL         string
}

// LoadConfig reads configuration from the environment, with an optional
// .env file merged in first. Missing optional values fall back to defaults.
func LoadConfig() *Config {
	_ = godotenv.Load()

	c := &Config{
		DefaultTZ: "Asia/Taipei",
		AppURL:    "http://localhost:5173",
	}

	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		c.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("SENDGRID_API_KEY"); ok {
		c.SendgridAPIKey = v
	}
	if v, ok := os.LookupEnv("FROM_EMAIL"); ok {
		c.FromEmail = v
	}
	if v, ok := os.LookupEnv("TZ"); ok && v != "" {
		c.DefaultTZ = v
	}
	if v, ok := os.LookupEnv("APP_URL"); ok && v != "" {
		c.AppURL = v
	}

	return c
}
