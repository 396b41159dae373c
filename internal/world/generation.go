// World generation from blended simplex noise.
// Every grid cell is classified into one of six noise bands, which decides
// the tile texture and whether a decoration is scattered on top of it.
package world

import (
	"math/rand"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Seed        int64   // Random seed (0 = random)
	Rows        int     // Grid rows
	Cols        int     // Grid columns
	TilePixels  float64 // Source texture size of one tile
	ScaleFactor float64 // Sprite scale applied to every tile
	FineScale   float64 // Divisor for the fine noise octave
	CoarseScale float64 // Divisor for the coarse noise octave
}

// DefaultGenConfig returns the full-size map configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:        0,
		Rows:        250,
		Cols:        250,
		TilePixels:  32,
		ScaleFactor: 2.5,
		FineScale:   10.5,
		CoarseScale: 45.5,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Seed = 42
	cfg.Rows = 24
	cfg.Cols = 24
	return cfg
}

// Generate creates the tile and decoration layers from seeded simplex noise.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	cfg.Seed = seed
	return GenerateWith(cfg, NewSimplexSampler(seed))
}

// GenerateWith runs generation against an arbitrary sampler. Decoration
// rolls are drawn from a generator derived from cfg.Seed, so the result is
// a pure function of (cfg, sampler).
func GenerateWith(cfg GenConfig, s Sampler) *Map {
	m := NewMap(cfg)
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		return m
	}

	field := NewNoiseField(s, cfg.FineScale, cfg.CoarseScale)
	rng := rand.New(rand.NewSource(cfg.Seed + 100))
	visited := make(map[GridCell]struct{}, cfg.Rows*cfg.Cols)

	for row := 0; row < cfg.Rows; row++ {
		for col := 0; col < cfg.Cols; col++ {
			cell := GridCell{Row: row, Col: col}
			if _, seen := visited[cell]; seen {
				continue
			}

			band := Classify(field.At(cell))

			if rng.Float64() > band.DecorThreshold {
				span := int(band.DecorMax-band.DecorMin) + 1
				m.addDecoration(Decoration{
					Cell:    cell,
					Variant: band.DecorMin + uint32(rng.Intn(span)),
					Layer:   LayerDecoration,
				})
			}

			m.addTile(Tile{
				Cell:     cell,
				Band:     band.ID,
				Category: band.Category,
				Texture:  band.Texture,
				Layer:    LayerTerrain,
				IsWater:  band.IsWater(),
				Water:    band.Water,
			})
			visited[cell] = struct{}{}
		}
	}

	m.place()
	return m
}

// GridToWorld converts a grid cell to world coordinates.
func (cfg GenConfig) GridToWorld(c GridCell) Vec2 {
	step := cfg.TilePixels * cfg.ScaleFactor
	return Vec2{X: float64(c.Row) * step, Y: float64(c.Col) * step}
}

// TileCounts returns a summary of category distribution.
func TileCounts(m *Map) map[Category]int {
	counts := make(map[Category]int)
	for _, t := range m.Tiles {
		counts[t.Category]++
	}
	return counts
}
