// Command orcwars runs the headless orc-horde simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/api"
	"github.com/talgya/orcwars/internal/config"
	"github.com/talgya/orcwars/internal/engine"
	"github.com/talgya/orcwars/internal/persistence"
	"github.com/talgya/orcwars/internal/player"
	"github.com/talgya/orcwars/internal/snapshot"
	"github.com/talgya/orcwars/internal/world"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty)")
	seedFlag := flag.Int64("seed", 0, "world seed override (0 keeps config/saved seed)")
	ticks := flag.Uint64("ticks", 0, "run this many ticks as fast as possible, then exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Orc Wars headless simulation")

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if dsn := os.Getenv("ORCWARS_DB"); dsn != "" {
		cfg.Persistence.DSN = dsn
	}
	if key := os.Getenv("ORCWARS_ADMIN_KEY"); key != "" {
		cfg.API.AdminKey = key
	}
	if *seedFlag != 0 {
		cfg.World.Seed = *seedFlag
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Persistence.DSN != "" {
		db, err = persistence.Open(cfg.Persistence.DSN)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "driver", db.Driver())
	}

	// ── Seed ──────────────────────────────────────────────────────────
	seed := cfg.World.Seed
	if seed == 0 && db != nil {
		if saved, ok := db.SavedSeed(); ok {
			seed = saved
			slog.Info("reusing saved seed", "seed", seed)
		}
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	cfg.World.Seed = seed

	// ── World Map (always regenerated, deterministic from seed) ──────
	slog.Info("generating world map...", "seed", seed, "rows", cfg.World.Rows, "cols", cfg.World.Cols)
	worldMap := world.Generate(cfg.GenConfig())
	worldMap.SetAnimationInterval(cfg.Engine.AnimationInterval)

	for c, n := range world.TileCounts(worldMap) {
		slog.Info("terrain", "type", world.CategoryName(c), "count", humanize.Comma(int64(n)))
	}
	slog.Info("world generated",
		"tiles", humanize.Comma(int64(worldMap.TileCount())),
		"decorations", humanize.Comma(int64(len(worldMap.Decorations))),
		"digest", worldMap.Digest()[:12],
	)

	// ── Simulation ────────────────────────────────────────────────────
	spawner := agents.NewSpawner(seed, cfg.SpawnConfig())
	sim := engine.NewSimulation(seed, worldMap, spawner, player.New())
	sim.Steering = cfg.Steering()
	sim.Animator = agents.Animator{Interval: cfg.Engine.AnimationInterval}
	sim.Patrol = &player.Patrol{
		Center:  player.SpawnPosition,
		Radius:  cfg.Player.PatrolRadius,
		Period:  cfg.Player.PatrolPeriod,
		Running: cfg.Player.Run,
	}

	var startTick uint64
	if db != nil && db.HasWorldState() {
		if saved, ok := db.SavedSeed(); ok && saved == seed {
			restored, err := db.LoadAgents()
			if err != nil {
				slog.Error("failed to load agents", "error", err)
				os.Exit(1)
			}
			progress, err := db.LoadProgress()
			if err != nil {
				slog.Error("failed to load progress", "error", err)
				os.Exit(1)
			}
			sim.RestoreAgents(restored)
			sim.RestoreProgress(progress)
			startTick = progress.Tick
			slog.Info("world state restored",
				"agents", len(restored),
				"tick", startTick,
				"spawned", humanize.Comma(int64(progress.TotalSpawned)),
				"killed", humanize.Comma(int64(progress.TotalKilled)),
				"sim_time", engine.SimTime(startTick, cfg.Engine.TPS),
			)
		} else {
			slog.Info("saved state belongs to another seed, starting fresh")
		}
	}

	runID := ""
	if db != nil {
		runID, err = db.StartRun(seed, worldMap)
		if err != nil {
			slog.Error("failed to start run", "error", err)
			os.Exit(1)
		}
		slog.Info("run started", "run_id", runID)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.TPS = cfg.Engine.TPS
	eng.Tick = startTick
	eng.SetSpeed(cfg.Engine.Speed)
	eng.SpawnEvery = eng.EveryTicks(cfg.Enemies.SpawnInterval)
	eng.ReportEvery = eng.PeriodTicks(cfg.Engine.ReportInterval)

	eng.OnSpawn = sim.SpawnTick
	eng.OnTick = sim.TickFrame
	eng.OnReport = sim.TickReport
	if db != nil {
		eng.SaveEvery = eng.PeriodTicks(cfg.Persistence.SaveInterval)
		eng.OnSave = func(tick uint64) {
			if err := db.SaveWorldState(sim); err != nil {
				slog.Error("periodic save failed", "tick", tick, "error", err)
			}
		}
	}

	// ── Headless batch mode ───────────────────────────────────────────
	if *ticks > 0 {
		eng.RunTicks(*ticks)
		shutdown(sim, db, cfg, runID)
		st := sim.Status()
		fmt.Printf("Ran %s ticks: %d orcs alive (%d elite), %d spawned.\n",
			humanize.Comma(int64(*ticks)), st.Stats.Alive, st.Stats.Elite, st.Stats.TotalSpawned)
		return
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn("ORCWARS_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		apiServer := &api.Server{
			Sim:          sim,
			Eng:          eng,
			DB:           db,
			Port:         cfg.API.Port,
			AdminKey:     cfg.API.AdminKey,
			SnapshotPath: cfg.Persistence.SnapshotPath,
			RunID:        runID,
		}
		apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	if startTick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", startTick, engine.SimTime(startTick, cfg.Engine.TPS))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	shutdown(sim, db, cfg, runID)
	fmt.Println("Simulation stopped. World state saved.")
}

// shutdown performs the final save and snapshot.
func shutdown(sim *engine.Simulation, db *persistence.DB, cfg config.Config, runID string) {
	if db != nil {
		slog.Info("final save...")
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}
	if cfg.Persistence.SnapshotPath != "" {
		snap := snapshot.Capture(sim, runID)
		if err := snapshot.Write(cfg.Persistence.SnapshotPath, snap); err != nil {
			slog.Error("snapshot failed", "error", err)
			return
		}
		slog.Info("snapshot written", "path", cfg.Persistence.SnapshotPath, "tick", snap.Header.Tick)
	}
}
