package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Sampler is a continuous 2D noise function returning values in roughly [-1, 1].
type Sampler interface {
	Sample(x, y float64) float64
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func(x, y float64) float64

// Sample calls f(x, y).
func (f SamplerFunc) Sample(x, y float64) float64 {
	return f(x, y)
}

// simplexSampler evaluates unnormalized simplex noise.
type simplexSampler struct {
	noise opensimplex.Noise
}

// NewSimplexSampler returns a seeded simplex sampler in the range [-1, 1].
func NewSimplexSampler(seed int64) Sampler {
	return simplexSampler{noise: opensimplex.New(seed)}
}

func (s simplexSampler) Sample(x, y float64) float64 {
	return s.noise.Eval2(x, y)
}

// NoiseField blends two frequencies of the same sampler so that large-scale
// structure survives without single-octave blotches.
type NoiseField struct {
	sampler     Sampler
	fineScale   float64
	coarseScale float64
}

// NewNoiseField wraps a sampler. Non-positive scales fall back to 1.
func NewNoiseField(s Sampler, fineScale, coarseScale float64) *NoiseField {
	if fineScale <= 0 {
		fineScale = 1
	}
	if coarseScale <= 0 {
		coarseScale = 1
	}
	return &NoiseField{sampler: s, fineScale: fineScale, coarseScale: coarseScale}
}

// At returns the blended sample for a grid cell.
func (f *NoiseField) At(c GridCell) float64 {
	r, col := float64(c.Row), float64(c.Col)
	fine := f.sampler.Sample(r/f.fineScale, col/f.fineScale)
	coarse := f.sampler.Sample(r/f.coarseScale, col/f.coarseScale)
	return (fine + coarse) / 2.0
}
