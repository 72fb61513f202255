package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DataDir         string   `mapstructure:"DATA_DIR"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	DefaultDoctor   string   `mapstructure:"DEFAULT_DOCTOR"`
	DefaultLocation string   `mapstructure:"DEFAULT_LOCATION"`
	WindowDays      int      `mapstructure:"BOOKING_WINDOW_DAYS"`
	SlotStepMinutes int      `mapstructure:"SLOT_STEP_MINUTES"`
	MaxSlotResults  int      `mapstructure:"MAX_SLOT_RESULTS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEFAULT_DOCTOR", "On-Call")
	v.SetDefault("DEFAULT_LOCATION", "Main Clinic")
	v.SetDefault("BOOKING_WINDOW_DAYS", 14)
	v.SetDefault("SLOT_STEP_MINUTES", 30)
	v.SetDefault("MAX_SLOT_RESULTS", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_DIR")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DEFAULT_DOCTOR")
	v.BindEnv("DEFAULT_LOCATION")
	v.BindEnv("BOOKING_WINDOW_DAYS")
	v.BindEnv("SLOT_STEP_MINUTES")
	v.BindEnv("MAX_SLOT_RESULTS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UsePostgres reports whether the Postgres-backed stores should be used
// instead of the default flat-file stores.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.UsePostgres() {
		return fmt.Errorf("DATA_DIR is required when DATABASE_URL is not set")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("BOOKING_WINDOW_DAYS must be positive, got %d", c.WindowDays)
	}
	if c.SlotStepMinutes <= 0 {
		return fmt.Errorf("SLOT_STEP_MINUTES must be positive, got %d", c.SlotStepMinutes)
	}
	if c.MaxSlotResults <= 0 {
		return fmt.Errorf("MAX_SLOT_RESULTS must be positive, got %d", c.MaxSlotResults)
	}
	return nil
}
