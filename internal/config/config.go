// Package config loads run configuration from YAML layered over defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/world"
)

// Config is the full run configuration.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Enemies     EnemyConfig       `yaml:"enemies"`
	Engine      EngineConfig      `yaml:"engine"`
	Player      PlayerConfig      `yaml:"player"`
	Persistence PersistenceConfig `yaml:"persistence"`
	API         APIConfig         `yaml:"api"`
}

type WorldConfig struct {
	Seed        int64   `yaml:"seed"`
	Rows        int     `yaml:"rows"`
	Cols        int     `yaml:"cols"`
	TilePixels  float64 `yaml:"tile_pixels"`
	ScaleFactor float64 `yaml:"scale_factor"`
	FineScale   float64 `yaml:"fine_scale"`
	CoarseScale float64 `yaml:"coarse_scale"`
}

type EnemyConfig struct {
	MaxAgents     int     `yaml:"max_agents"`
	SpawnBatch    int     `yaml:"spawn_batch"`
	SpawnInterval float64 `yaml:"spawn_interval_seconds"`
	MinRadius     float64 `yaml:"min_radius"`
	MaxRadius     float64 `yaml:"max_radius"`
	EngageRadius  float64 `yaml:"engage_radius"`
	Speed         float64 `yaml:"speed"`
	TimeScaled    bool    `yaml:"time_scaled"`
}

type EngineConfig struct {
	TPS               int     `yaml:"tps"`
	Speed             float64 `yaml:"speed"`
	AnimationInterval float64 `yaml:"animation_interval_seconds"`
	ReportInterval    float64 `yaml:"report_interval_seconds"`
}

type PlayerConfig struct {
	PatrolRadius float64 `yaml:"patrol_radius"`
	PatrolPeriod float64 `yaml:"patrol_period_seconds"`
	Run          bool    `yaml:"run"`
}

type PersistenceConfig struct {
	DSN          string  `yaml:"dsn"` // sqlite path or postgres:// URL; empty disables
	SnapshotPath string  `yaml:"snapshot_path"`
	SaveInterval float64 `yaml:"save_interval_seconds"`
}

type APIConfig struct {
	Port     int    `yaml:"port"` // 0 disables the HTTP API
	AdminKey string `yaml:"admin_key"`
}

// Default returns the standard configuration.
func Default() Config {
	gen := world.DefaultGenConfig()
	sp := agents.DefaultSpawnConfig()
	st := agents.DefaultSteering()
	return Config{
		World: WorldConfig{
			Seed:        gen.Seed,
			Rows:        gen.Rows,
			Cols:        gen.Cols,
			TilePixels:  gen.TilePixels,
			ScaleFactor: gen.ScaleFactor,
			FineScale:   gen.FineScale,
			CoarseScale: gen.CoarseScale,
		},
		Enemies: EnemyConfig{
			MaxAgents:     sp.MaxAgents,
			SpawnBatch:    sp.Batch,
			SpawnInterval: 2,
			MinRadius:     sp.MinRadius,
			MaxRadius:     sp.MaxRadius,
			EngageRadius:  st.EngageRadius,
			Speed:         st.Speed,
		},
		Engine: EngineConfig{
			TPS:               60,
			Speed:             1,
			AnimationInterval: world.DefaultAnimationInterval,
			ReportInterval:    10,
		},
		Player: PlayerConfig{
			PatrolRadius: 1500,
			PatrolPeriod: 60,
		},
		Persistence: PersistenceConfig{
			DSN:          "data/orcwars.db",
			SnapshotPath: "data/world.snap.zst",
			SaveInterval: 60,
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the simulation cannot run sensibly.
func (c Config) Validate() error {
	var errs []error
	if c.World.Rows < 0 || c.World.Cols < 0 {
		errs = append(errs, fmt.Errorf("world: negative extents %dx%d", c.World.Rows, c.World.Cols))
	}
	if c.World.TilePixels <= 0 || c.World.ScaleFactor <= 0 {
		errs = append(errs, errors.New("world: tile_pixels and scale_factor must be positive"))
	}
	if c.World.FineScale <= 0 || c.World.CoarseScale <= 0 {
		errs = append(errs, errors.New("world: noise scales must be positive"))
	}
	if c.Enemies.MaxAgents < 0 || c.Enemies.SpawnBatch < 0 {
		errs = append(errs, errors.New("enemies: max_agents and spawn_batch must not be negative"))
	}
	if c.Enemies.SpawnInterval <= 0 {
		errs = append(errs, errors.New("enemies: spawn_interval_seconds must be positive"))
	}
	if c.Enemies.MinRadius < 0 || c.Enemies.MaxRadius < c.Enemies.MinRadius {
		errs = append(errs, fmt.Errorf("enemies: bad spawn annulus [%v, %v)", c.Enemies.MinRadius, c.Enemies.MaxRadius))
	}
	if c.Enemies.EngageRadius <= 0 || c.Enemies.Speed < 0 {
		errs = append(errs, errors.New("enemies: engage_radius must be positive and speed not negative"))
	}
	if c.Engine.TPS <= 0 {
		errs = append(errs, errors.New("engine: tps must be positive"))
	}
	if c.Engine.AnimationInterval <= 0 {
		errs = append(errs, errors.New("engine: animation_interval_seconds must be positive"))
	}
	if c.Engine.ReportInterval < 0 {
		errs = append(errs, errors.New("engine: report_interval_seconds must not be negative (0 disables)"))
	}
	if c.Persistence.SaveInterval < 0 {
		errs = append(errs, errors.New("persistence: save_interval_seconds must not be negative (0 disables)"))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api: port %d out of range", c.API.Port))
	}
	return errors.Join(errs...)
}

// GenConfig returns the world generation parameters.
func (c Config) GenConfig() world.GenConfig {
	return world.GenConfig{
		Seed:        c.World.Seed,
		Rows:        c.World.Rows,
		Cols:        c.World.Cols,
		TilePixels:  c.World.TilePixels,
		ScaleFactor: c.World.ScaleFactor,
		FineScale:   c.World.FineScale,
		CoarseScale: c.World.CoarseScale,
	}
}

// SpawnConfig returns the population parameters.
func (c Config) SpawnConfig() agents.SpawnConfig {
	return agents.SpawnConfig{
		MaxAgents: c.Enemies.MaxAgents,
		Batch:     c.Enemies.SpawnBatch,
		MinRadius: c.Enemies.MinRadius,
		MaxRadius: c.Enemies.MaxRadius,
	}
}

// Steering returns the chase parameters, tuned against the configured rate.
func (c Config) Steering() agents.Steering {
	return agents.Steering{
		EngageRadius: c.Enemies.EngageRadius,
		Speed:        c.Enemies.Speed,
		TimeScaled:   c.Enemies.TimeScaled,
		ReferenceTPS: float64(c.Engine.TPS),
	}
}
