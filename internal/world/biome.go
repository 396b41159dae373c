package world

import "math"

// Category is the tile rendering class assigned to a grid cell.
type Category uint8

const (
	CategoryDirt        Category = iota // Base ground, densest decoration
	CategoryNormalWater                 // Shallow animated water
	CategoryDeepWater                   // Deep animated water
	CategorySand                        // Shoreline
	CategoryGrass                       // Covers two noise bands
)

// WaterVariant selects the animation row of a water tile.
type WaterVariant uint8

const (
	WaterNone WaterVariant = iota
	WaterNormal
	WaterDeep
)

// BandID identifies one of the six noise ranges. Two bands can share a
// Category; they differ only in decoration tuning.
type BandID uint8

const (
	BandDirt BandID = iota
	BandNormalWater
	BandDeepWater
	BandSand
	BandGrassLow
	BandGrassHigh
)

// Band describes a noise range and everything that follows from landing in it.
type Band struct {
	ID       BandID
	Min      float64 // inclusive
	Max      float64 // exclusive
	Category Category
	Texture  uint32 // atlas index in the terrain or water sheet
	Water    WaterVariant

	// A decoration is placed when a uniform draw in [0,1) exceeds DecorThreshold.
	DecorThreshold float64
	DecorMin       uint32 // inclusive
	DecorMax       uint32 // inclusive
}

// IsWater reports whether the band produces an animated water tile.
func (b Band) IsWater() bool {
	return b.Water != WaterNone
}

// Contains reports whether v falls inside [Min, Max).
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v < b.Max
}

// Terrain atlas indices.
const (
	textureDirt  uint32 = 0
	textureSand  uint32 = 1
	textureGrass uint32 = 2
)

// WaterFrames is the number of animation frames per water atlas row.
const WaterFrames = 4

// Water atlas row bases.
const (
	waterNormalBase uint32 = 0
	waterDeepBase   uint32 = 4
)

// bands is ordered low to high and must tile the real line without gaps.
var bands = [...]Band{
	{ID: BandDirt, Min: math.Inf(-1), Max: 0.23, Category: CategoryDirt, Texture: textureDirt,
		DecorThreshold: 0.7, DecorMin: 4, DecorMax: 13},
	{ID: BandNormalWater, Min: 0.23, Max: 0.31, Category: CategoryNormalWater, Texture: waterNormalBase, Water: WaterNormal,
		DecorThreshold: 0.8, DecorMin: 0, DecorMax: 2},
	{ID: BandDeepWater, Min: 0.31, Max: 0.36, Category: CategoryDeepWater, Texture: waterDeepBase, Water: WaterDeep,
		DecorThreshold: 0.8, DecorMin: 0, DecorMax: 2},
	{ID: BandSand, Min: 0.36, Max: 0.50, Category: CategorySand, Texture: textureSand,
		DecorThreshold: 0.8, DecorMin: 4, DecorMax: 13},
	{ID: BandGrassLow, Min: 0.50, Max: 0.64, Category: CategoryGrass, Texture: textureGrass,
		DecorThreshold: 0.8, DecorMin: 14, DecorMax: 15},
	{ID: BandGrassHigh, Min: 0.64, Max: math.Inf(1), Category: CategoryGrass, Texture: textureGrass,
		DecorThreshold: 0.8, DecorMin: 14, DecorMax: 15},
}

// Bands returns a copy of the classification table, low to high.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands[:])
	return out
}

// Classify maps a blended noise sample to exactly one band. The first
// matching range wins; NaN lands on dirt.
func Classify(v float64) Band {
	for _, b := range bands {
		if b.Contains(v) {
			return b
		}
	}
	return bands[BandDirt]
}

// CategoryName returns a human-readable name for a tile category.
func CategoryName(c Category) string {
	switch c {
	case CategoryDirt:
		return "Dirt"
	case CategoryNormalWater:
		return "Water"
	case CategoryDeepWater:
		return "DeepWater"
	case CategorySand:
		return "Sand"
	case CategoryGrass:
		return "Grass"
	default:
		return "Unknown"
	}
}
