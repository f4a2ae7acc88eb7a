package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Mongo configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int    `mapstructure:"REDIS_CACHE_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`
	RedisSweepLockDB     int    `mapstructure:"REDIS_SWEEP_LOCK_DB"`

	// Booking policy.
	BookingRequireConfirmation bool `mapstructure:"BOOKING_REQUIRE_CONFIRMATION"`
	BookingAutoConfirm         bool `mapstructure:"BOOKING_AUTO_CONFIRM"`
	CancellationCutoffHours    int  `mapstructure:"CANCELLATION_CUTOFF_HOURS"`
	ConfirmationCodeTTLHours   int  `mapstructure:"CONFIRMATION_CODE_TTL_HOURS"`

	// Reminder reconciliation sweep.
	SweepIntervalMinutes int `mapstructure:"SWEEP_INTERVAL_MINUTES"`
	SweepHorizonHours    int `mapstructure:"SWEEP_HORIZON_HOURS"`

	// Day-slot cache.
	SlotCacheTTLMinutes int `mapstructure:"SLOT_CACHE_TTL_MINUTES"`

	// SMTP settings for the mail notification sender.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "schedly")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 1)
	viper.SetDefault("REDIS_SWEEP_LOCK_DB", 2)
	viper.SetDefault("BOOKING_REQUIRE_CONFIRMATION", true)
	viper.SetDefault("BOOKING_AUTO_CONFIRM", false)
	viper.SetDefault("CANCELLATION_CUTOFF_HOURS", 2)
	viper.SetDefault("CONFIRMATION_CODE_TTL_HOURS", 24)
	viper.SetDefault("SWEEP_INTERVAL_MINUTES", 5)
	viper.SetDefault("SWEEP_HORIZON_HOURS", 48)
	viper.SetDefault("SLOT_CACHE_TTL_MINUTES", 5)
	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_FROM", "bookings@schedly.local")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// CancellationCutoff returns the minimum lead time a client must leave
// between cancelling and the slot start.
func CancellationCutoff() time.Duration {
	return time.Duration(AppConfig.CancellationCutoffHours) * time.Hour
}

// ConfirmationCodeTTL returns how long an issued confirmation code stays valid.
func ConfirmationCodeTTL() time.Duration {
	return time.Duration(AppConfig.ConfirmationCodeTTLHours) * time.Hour
}

// SweepInterval returns how often the reminder reconciliation sweep runs.
func SweepInterval() time.Duration {
	return time.Duration(AppConfig.SweepIntervalMinutes) * time.Minute
}

// SlotCacheTTL returns how long computed day-slot sequences stay cached.
func SlotCacheTTL() time.Duration {
	return time.Duration(AppConfig.SlotCacheTTLMinutes) * time.Minute
}

// SweepHorizon returns how far ahead the sweep looks for upcoming slots.
func SweepHorizon() time.Duration {
	return time.Duration(AppConfig.SweepHorizonHours) * time.Hour
}
