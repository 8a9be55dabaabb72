// Package vehicle holds the physical constants of the car the racing-line
// solver models. Configs are plain constructible values so concurrent
// recomputation for different vehicles never shares state.
package vehicle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxProfileBytes caps vehicle profile files to keep accidental large reads
// out of the loader.
const maxProfileBytes = 1 << 20

// Config is one vehicle's physical model.
type Config struct {
	Name                     string  `json:"name"`
	MassKg                   float64 `json:"mass_kg"`
	PowerHp                  float64 `json:"power_hp"`
	TopSpeedMps              float64 `json:"top_speed_ms"`
	TireFrictionDry          float64 `json:"tire_friction_dry"`
	TireFrictionWet          float64 `json:"tire_friction_wet"`
	TireFrictionIntermediate float64 `json:"tire_friction_intermediate"`
	OptimalTireTemp          float64 `json:"optimal_tire_temp"`
	MaxLateralG              float64 `json:"max_lateral_g"`
	MaxBrakeG                float64 `json:"max_brake_g"`
	MaxAccelG                float64 `json:"max_accel_g"`
	CornerSpeedFactor        float64 `json:"corner_speed_factor"`
}

// Default returns the reference car: a ~1270 kg, 228 hp production-based
// race car. These values anchor the grip baseline and must stay
// reproducible exactly.
func Default() Config {
	return Config{
		Name:                     "Toyota GR86 Cup Car",
		MassKg:                   1270,
		PowerHp:                  228,
		TopSpeedMps:              67.0,
		TireFrictionDry:          1.40,
		TireFrictionWet:          0.70,
		TireFrictionIntermediate: 1.00,
		OptimalTireTemp:          85,
		MaxLateralG:              1.35,
		MaxBrakeG:                1.50,
		MaxAccelG:                0.85,
		CornerSpeedFactor:        0.92,
	}
}

// Validate checks the fields the solver divides by or roots.
func (c Config) Validate() error {
	if c.TireFrictionDry <= 0 {
		return fmt.Errorf("vehicle %q: tire_friction_dry must be positive", c.Name)
	}
	if c.TopSpeedMps <= 0 {
		return fmt.Errorf("vehicle %q: top_speed_ms must be positive", c.Name)
	}
	if c.MaxBrakeG <= 0 || c.MaxAccelG <= 0 {
		return fmt.Errorf("vehicle %q: braking and acceleration limits must be positive", c.Name)
	}
	if c.CornerSpeedFactor <= 0 {
		return fmt.Errorf("vehicle %q: corner_speed_factor must be positive", c.Name)
	}
	return nil
}

// LoadProfile reads a vehicle profile JSON file. Fields omitted from the
// file retain the default values, so partial profiles are safe.
func LoadProfile(path string) (Config, error) {
	cfg := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("vehicle profile must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, err
	}
	if info.Size() > maxProfileBytes {
		return cfg, fmt.Errorf("vehicle profile %s too large (%d bytes)", cleanPath, info.Size())
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse vehicle profile %s: %w", cleanPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
