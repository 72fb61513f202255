package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.DefaultDoctor != "On-Call" {
		t.Errorf("DefaultDoctor = %q, want On-Call", cfg.DefaultDoctor)
	}
	if cfg.DefaultLocation != "Main Clinic" {
		t.Errorf("DefaultLocation = %q, want Main Clinic", cfg.DefaultLocation)
	}
	if cfg.WindowDays != 14 {
		t.Errorf("WindowDays = %d, want 14", cfg.WindowDays)
	}
	if cfg.SlotStepMinutes != 30 {
		t.Errorf("SlotStepMinutes = %d, want 30", cfg.SlotStepMinutes)
	}
	if cfg.UsePostgres() {
		t.Error("UsePostgres() = true with no DATABASE_URL")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9100")
	os.Setenv("DEFAULT_DOCTOR", "Dr. Chen")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("DEFAULT_DOCTOR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("Port = %q, want 9100", cfg.Port)
	}
	if cfg.DefaultDoctor != "Dr. Chen" {
		t.Errorf("DefaultDoctor = %q, want Dr. Chen", cfg.DefaultDoctor)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{DataDir: "./data", WindowDays: 14, SlotStepMinutes: 30, MaxSlotResults: 5}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	bad := &Config{DataDir: "./data", WindowDays: 0, SlotStepMinutes: 30, MaxSlotResults: 5}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero BOOKING_WINDOW_DAYS")
	}

	noDir := &Config{WindowDays: 14, SlotStepMinutes: 30, MaxSlotResults: 5}
	if err := noDir.Validate(); err == nil {
		t.Error("expected error when neither DATA_DIR nor DATABASE_URL is set")
	}
}
