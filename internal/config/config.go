// Package config loads process settings from the environment (optionally
// seeded from a .env file) and the farm layout from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds process-level settings.
type AppConfig struct {
	Port       int
	Seed       int64 // 0 = non-deterministic
	Speed      string
	Lat        float64
	Lon        float64
	RealData   bool
	PowerURL   string
	NDVIURL    string
	SoilURL    string
	CachePath  string // empty disables the response cache
	LayoutPath string // empty uses DefaultLayout
	AdminKey   string
	LogLevel   slog.Level
}

// Load reads .env (if present) and then the environment.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (AppConfig, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	cfg := AppConfig{
		Speed:      get("FARMSIM_SPEED", "normal"),
		PowerURL:   get("FARMSIM_POWER_URL", ""),
		NDVIURL:    get("FARMSIM_NDVI_URL", ""),
		SoilURL:    get("FARMSIM_SOIL_URL", ""),
		CachePath:  get("FARMSIM_CACHE_PATH", "data/samples.db"),
		LayoutPath: get("FARMSIM_LAYOUT", ""),
		AdminKey:   get("FARMSIM_ADMIN_KEY", ""),
	}
	if getenv("FARMSIM_CACHE_PATH") == "off" {
		cfg.CachePath = ""
	}

	var err error
	if cfg.Port, err = strconv.Atoi(get("FARMSIM_PORT", "8080")); err != nil {
		return cfg, fmt.Errorf("FARMSIM_PORT: %w", err)
	}
	if cfg.Seed, err = strconv.ParseInt(get("FARMSIM_SEED", "0"), 10, 64); err != nil {
		return cfg, fmt.Errorf("FARMSIM_SEED: %w", err)
	}
	if cfg.Lat, err = strconv.ParseFloat(get("FARMSIM_LAT", "42.0308"), 64); err != nil {
		return cfg, fmt.Errorf("FARMSIM_LAT: %w", err)
	}
	if cfg.Lon, err = strconv.ParseFloat(get("FARMSIM_LON", "-93.6319"), 64); err != nil {
		return cfg, fmt.Errorf("FARMSIM_LON: %w", err)
	}
	if cfg.RealData, err = strconv.ParseBool(get("FARMSIM_REAL_DATA", "false")); err != nil {
		return cfg, fmt.Errorf("FARMSIM_REAL_DATA: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.Lat < -90 || cfg.Lat > 90 || cfg.Lon < -180 || cfg.Lon > 180 {
		return cfg, fmt.Errorf("location %.4f,%.4f out of range", cfg.Lat, cfg.Lon)
	}
	return cfg, nil
}
