package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	TelegramToken string
	SupabaseURL   string
	SupabaseKey   string

	Timezone string
	Location *time.Location

	ReminderLead   time.Duration // how long before the appointment a reminder fires
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	SessionTTL     time.Duration

	Port        string
	AdminChatID string
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one is present.
func LoadConfig() (*Config, error) {
	// Missing .env is fine in production, where real env vars are set.
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		SupabaseKey:    os.Getenv("SUPABASE_KEY"),
		Timezone:       getEnv("TIMEZONE", "Asia/Riyadh"),
		ReminderLead:   time.Duration(getEnvInt("REMINDER_LEAD_MINUTES", 120)) * time.Minute,
		CacheTTL:       getEnvDuration("CACHE_TTL", time.Minute),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		Port:           getEnv("PORT", "3000"),
		AdminChatID:    os.Getenv("ADMIN_CHAT_ID"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be set")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
