package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DatabaseURL is only required by commands that touch sync state.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	// Deduplication tuning.
	AutoMergeConfidence float64 `envconfig:"ET_AUTO_MERGE_CONFIDENCE" default:"0.9"`

	// Quality gate applied before sync planning.
	MinSyncQualityScore float64 `envconfig:"ET_MIN_SYNC_QUALITY" default:"60"`

	// Travel-time heuristics (minutes / km/h). Tunable, not load-bearing.
	TravelSpeedKmh       float64 `envconfig:"ET_TRAVEL_SPEED_KMH" default:"30"`
	InterCityTravelMin   float64 `envconfig:"ET_INTERCITY_TRAVEL_MIN" default:"45"`
	IntraCityTravelMin   float64 `envconfig:"ET_INTRACITY_TRAVEL_MIN" default:"15"`
	ResolveShiftMinutes  int     `envconfig:"ET_RESOLVE_SHIFT_MINUTES" default:"30"`
	MaxFutureDays        int     `envconfig:"ET_MAX_FUTURE_DAYS" default:"730"`
	LanguageDetection    bool    `envconfig:"ET_LANGUAGE_DETECTION" default:"true"`
	AutoFix              bool    `envconfig:"ET_AUTO_FIX" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.AutoMergeConfidence < 0 || c.AutoMergeConfidence > 1 {
		return fmt.Errorf("ET_AUTO_MERGE_CONFIDENCE must be in [0,1]")
	}
	if c.MinSyncQualityScore < 0 || c.MinSyncQualityScore > 100 {
		return fmt.Errorf("ET_MIN_SYNC_QUALITY must be in [0,100]")
	}
	if c.TravelSpeedKmh <= 0 {
		return fmt.Errorf("ET_TRAVEL_SPEED_KMH must be > 0")
	}
	if c.ResolveShiftMinutes <= 0 {
		return fmt.Errorf("ET_RESOLVE_SHIFT_MINUTES must be > 0")
	}
	if c.MaxFutureDays <= 0 {
		return fmt.Errorf("ET_MAX_FUTURE_DAYS must be > 0")
	}
	return nil
}

// RequireDatabase validates that a database URL is configured for commands
// that persist sync state.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
