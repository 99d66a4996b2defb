// Command farmsim runs the farm simulation and serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/farmsim/internal/api"
	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/datasource"
	"github.com/talgya/farmsim/internal/engine"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	speed, err := engine.ParseSpeed(cfg.Speed)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// ── Response cache ───────────────────────────────────────────────
	var cache datasource.Cache
	if cfg.CachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
			slog.Error("failed to create cache directory", "error", err)
			os.Exit(1)
		}
		db, err := persistence.Open(cfg.CachePath)
		if err != nil {
			slog.Error("failed to open sample cache", "path", cfg.CachePath, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if n, err := db.Prune(context.Background()); err != nil {
			slog.Warn("cache prune failed", "error", err)
		} else {
			slog.Info("sample cache opened", "path", cfg.CachePath, "pruned", n)
		}
		cache = db
	}

	// ── Farm layout ──────────────────────────────────────────────────
	layout := config.DefaultLayout()
	if cfg.LayoutPath != "" {
		if layout, err = config.LoadLayout(cfg.LayoutPath); err != nil {
			slog.Error("failed to load layout", "path", cfg.LayoutPath, "error", err)
			os.Exit(1)
		}
	}
	fields, animals, err := layout.Build()
	if err != nil {
		slog.Error("invalid layout", "error", err)
		os.Exit(1)
	}

	// ── External data ────────────────────────────────────────────────
	rng := entropy.New(cfg.Seed)
	enricher := &datasource.Enricher{
		Climate:  datasource.NewPowerClient(cfg.PowerURL, cache),
		Fallback: datasource.NewSynthetic(entropy.New(rng.Seed() + 1)),
		Logger:   logger.With("component", "datasource"),
	}
	if cfg.NDVIURL != "" {
		enricher.Vegetation = datasource.NewVegetationClient(cfg.NDVIURL, cache)
	}
	if cfg.SoilURL != "" {
		enricher.Soil = datasource.NewSoilMoistureClient(cfg.SoilURL, cache)
	}

	// ── Simulation ───────────────────────────────────────────────────
	location := datasource.Location{Lat: cfg.Lat, Lon: cfg.Lon}
	sim := engine.NewSimulation(engine.Setup{
		Year:      layout.Year,
		Month:     layout.Month,
		Fields:    fields,
		Livestock: animals,
		Resources: layout.Resources,
		Rand:      rng,
		Location:  location,
		Enricher:  enricher,
	})
	slog.Info("farm ready",
		"seed", rng.Seed(),
		"fields", len(fields),
		"livestock", len(animals),
		"location", location.String(),
	)

	eng := engine.NewEngine(speed)
	eng.OnTick = func(uint64) { sim.AdvanceTick() }
	eng.OnStateChange = sim.SetRunning

	if cfg.RealData {
		sim.ToggleRealDataSource(true)
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("FARMSIM_ADMIN_KEY not set, POST endpoints are open")
	}
	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Start ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)
	slog.Info("shutting down", "tick", sim.Snapshot().Tick)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	sim.Wait()

	fmt.Println("Simulation stopped.")
}
