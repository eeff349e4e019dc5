package config

import (
	"fmt"
	"time"

	"github.com/hotelhub/service-booking/internal/domain/booking"
	"github.com/hotelhub/service-booking/pkg/config"
)

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	MigrationsPath string
	DBConfig       config.DatabaseConfig
	JWTConfig      config.JWTConfig
	KafkaConfig    config.KafkaConfig
	RedisConfig    config.RedisConfig
	Lifecycle      LifecycleConfig
	RateLimit      RateLimitConfig
	ExportMaxRows  int
}

// LifecycleConfig holds the booking lifecycle settings.
type LifecycleConfig struct {
	// Location is the hotel time zone that dates and the checkout cutoff are evaluated in.
	Location *time.Location

	// CheckoutCutoff is the time of day on the check-out date after which a stay is over.
	CheckoutCutoff time.Duration

	AdminReasonMinLength int
	ReconcileOnRead      bool
	SweeperEnabled       bool
	SweeperInterval      time.Duration
	SweeperBatchSize     int
}

// RateLimitConfig holds per-client API rate limits. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}

	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CHECKOUT_CUTOFF", "12:00")
	v.SetDefault("ADMIN_REASON_MIN_LENGTH", 10)
	v.SetDefault("RECONCILE_ON_READ", false)
	v.SetDefault("SWEEPER_ENABLED", true)
	v.SetDefault("SWEEPER_INTERVAL", "1m")
	v.SetDefault("SWEEPER_BATCH_SIZE", 500)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("EXPORT_MAX_ROWS", 10000)

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_TIMEZONE: %w", err)
	}
	cutoff, err := booking.ParseCutoff(v.GetString("CHECKOUT_CUTOFF"))
	if err != nil {
		return nil, err
	}
	interval := v.GetDuration("SWEEPER_INTERVAL")
	if interval <= 0 {
		return nil, fmt.Errorf("invalid BOOKING_SWEEPER_INTERVAL: %q", v.GetString("SWEEPER_INTERVAL"))
	}

	return &ServiceConfig{
		Port:           config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:         config.GetAppEnv(v),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		DBConfig:       config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:      config.LoadJWTConfig(v),
		KafkaConfig:    config.LoadKafkaConfig(v),
		RedisConfig:    config.LoadRedisConfig(v),
		Lifecycle: LifecycleConfig{
			Location:             loc,
			CheckoutCutoff:       cutoff,
			AdminReasonMinLength: v.GetInt("ADMIN_REASON_MIN_LENGTH"),
			ReconcileOnRead:      v.GetBool("RECONCILE_ON_READ"),
			SweeperEnabled:       v.GetBool("SWEEPER_ENABLED"),
			SweeperInterval:      interval,
			SweeperBatchSize:     v.GetInt("SWEEPER_BATCH_SIZE"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		ExportMaxRows: v.GetInt("EXPORT_MAX_ROWS"),
	}, nil
}
