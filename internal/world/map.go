// Package world provides the tile grid, noise classification and world-space
// placement for the static map.
package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// Z-order of generated layers.
const (
	LayerTerrain    int32 = -1
	LayerDecoration int32 = 0
)

// DefaultAnimationInterval is the seconds between water animation frames.
const DefaultAnimationInterval = 0.1

// GridCell is a (row, col) position on the tile grid.
type GridCell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is one terrain or water placement.
type Tile struct {
	Cell     GridCell     `json:"cell"`
	Band     BandID       `json:"band"`
	Category Category     `json:"category"`
	Texture  uint32       `json:"texture"` // Cycles for water tiles only
	Layer    int32        `json:"layer"`
	IsWater  bool         `json:"is_water"`
	Water    WaterVariant `json:"water,omitempty"`
	Pos      Vec2         `json:"pos"`
}

// Decoration is a nature sprite scattered on top of a tile.
type Decoration struct {
	Cell    GridCell `json:"cell"`
	Variant uint32   `json:"variant"`
	Layer   int32    `json:"layer"`
	Pos     Vec2     `json:"pos"`
}

// Map holds the generated world. Only water textures change after generation.
type Map struct {
	Config      GenConfig    `json:"config"`
	Tiles       []Tile       `json:"tiles"`
	Decorations []Decoration `json:"decorations"`

	index     map[GridCell]int
	water     []int // indices into Tiles
	animEvery float64
	animClock float64
}

// NewMap creates an empty map for the given configuration.
func NewMap(cfg GenConfig) *Map {
	return &Map{
		Config:    cfg,
		index:     make(map[GridCell]int),
		animEvery: DefaultAnimationInterval,
	}
}

// RestoreMap rebuilds a map from previously generated layers.
func RestoreMap(cfg GenConfig, tiles []Tile, decorations []Decoration) *Map {
	m := NewMap(cfg)
	for _, t := range tiles {
		m.addTile(t)
	}
	m.Decorations = append(m.Decorations, decorations...)
	return m
}

func (m *Map) addTile(t Tile) {
	m.index[t.Cell] = len(m.Tiles)
	if t.IsWater {
		m.water = append(m.water, len(m.Tiles))
	}
	m.Tiles = append(m.Tiles, t)
}

func (m *Map) addDecoration(d Decoration) {
	m.Decorations = append(m.Decorations, d)
}

// place converts every record's grid cell into world coordinates.
func (m *Map) place() {
	for i := range m.Tiles {
		m.Tiles[i].Pos = m.Config.GridToWorld(m.Tiles[i].Cell)
	}
	for i := range m.Decorations {
		m.Decorations[i].Pos = m.Config.GridToWorld(m.Decorations[i].Cell)
	}
}

// Get returns the tile at the given cell, or nil if out of bounds.
func (m *Map) Get(c GridCell) *Tile {
	i, ok := m.index[c]
	if !ok {
		return nil
	}
	return &m.Tiles[i]
}

// InBounds reports whether the cell lies inside the configured rectangle.
func (m *Map) InBounds(c GridCell) bool {
	return c.Row >= 0 && c.Row < m.Config.Rows && c.Col >= 0 && c.Col < m.Config.Cols
}

// CellAt returns the grid cell containing a world position.
func (m *Map) CellAt(p Vec2) GridCell {
	step := m.Config.TilePixels * m.Config.ScaleFactor
	if step <= 0 {
		return GridCell{}
	}
	return GridCell{
		Row: int(math.Floor(p.X/step + 0.5)),
		Col: int(math.Floor(p.Y/step + 0.5)),
	}
}

// TileCount returns the number of placed tiles.
func (m *Map) TileCount() int {
	return len(m.Tiles)
}

// WaterCount returns the number of animated water tiles.
func (m *Map) WaterCount() int {
	return len(m.water)
}

// SetAnimationInterval changes the water frame period. Non-positive values
// are ignored.
func (m *Map) SetAnimationInterval(seconds float64) {
	if seconds > 0 {
		m.animEvery = seconds
	}
}

// AnimateWater advances the shared water clock by dt seconds and steps every
// water tile once per elapsed interval. It returns the number of steps taken.
func (m *Map) AnimateWater(dt float64) int {
	if dt <= 0 || len(m.water) == 0 {
		return 0
	}
	m.animClock += dt
	steps := 0
	for m.animClock >= m.animEvery {
		m.animClock -= m.animEvery
		steps++
		for _, i := range m.water {
			t := &m.Tiles[i]
			t.Texture = NextWaterFrame(t.Texture, t.Water)
		}
	}
	return steps
}

// NextWaterFrame returns the frame after cur for the given water variant.
func NextWaterFrame(cur uint32, v WaterVariant) uint32 {
	switch v {
	case WaterNormal:
		return (cur+1)%WaterFrames + waterNormalBase
	case WaterDeep:
		return (cur+1)%WaterFrames + waterDeepBase
	default:
		return cur
	}
}

// Digest returns a stable hash of the generated layers, ignoring animation.
func (m *Map) Digest() string {
	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(uint64(m.Config.Rows))
	put(uint64(m.Config.Cols))
	for _, t := range m.Tiles {
		put(uint64(t.Cell.Row))
		put(uint64(t.Cell.Col))
		put(uint64(t.Band))
		put(math.Float64bits(t.Pos.X))
		put(math.Float64bits(t.Pos.Y))
	}
	for _, d := range m.Decorations {
		put(uint64(d.Cell.Row))
		put(uint64(d.Cell.Col))
		put(uint64(d.Variant))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d, tiles=%d, water=%d, decorations=%d)",
		m.Config.Rows, m.Config.Cols, len(m.Tiles), len(m.water), len(m.Decorations))
}
