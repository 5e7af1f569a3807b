package stream

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// GradientStop is one key point of a GradientTable.
type GradientStop struct {
	Hue float64 `yaml:"hue" json:"hue"`
	Pos float64 `yaml:"pos" json:"pos"`
}

// GradientTable stores a look-up table of colours interpolated by hue.
type GradientTable []GradientStop

// Rainbow is the gradient the streamer falls back to.
var Rainbow = GradientTable{
	{0.0, 0.0},
	{6.0, 0.04},   // Pink
	{87.0, 0.14},  // Red
	{88.0, 0.28},  // Orange
	{98.0, 0.42},  // Yellow
	{180.0, 0.56}, // Green
	{190.0, 0.70}, // Turquoise
	{320.0, 0.84}, // Blue
	{328.0, 0.91}, // Violet
	{360.0, 1.0},  // Pink wrap
}

// GetColor gets a colour at the specified point on the look-up table.
func (g GradientTable) GetColor(t, s, l float64) colorful.Color {
	if len(g) == 0 {
		return colorful.Color{}
	}
	if t <= g[0].Pos {
		return colorful.Hcl(g[0].Hue, s, l)
	}
	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			if c2.Pos == c1.Pos {
				return colorful.Hcl(c1.Hue, s, l)
			}
			h := (((t - c1.Pos) / (c2.Pos - c1.Pos)) * (c2.Hue - c1.Hue)) + c1.Hue
			return colorful.Hcl(h, s, l)
		}
	}

	// at (or past) the last key point
	return colorful.Hcl(g[len(g)-1].Hue, s, l)
}

// Validate checks that the table has key points in ascending order.
func (g GradientTable) Validate() error {
	if len(g) < 2 {
		return fmt.Errorf("gradient needs at least 2 stops, got %d", len(g))
	}
	for i := 1; i < len(g); i++ {
		if g[i].Pos < g[i-1].Pos {
			return fmt.Errorf("gradient stop %d at %v is before stop %d at %v", i, g[i].Pos, i-1, g[i-1].Pos)
		}
	}
	return nil
}
