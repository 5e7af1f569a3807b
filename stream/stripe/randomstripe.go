// Package stripe generates runs of coloured pixels.
package stripe

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// Stripe is a run of Length pixels of one colour.
type Stripe struct {
	Colour colorful.Color
	Length int32
}

// RandomStripeGenerator picks stripe colours from a palette and lengths from
// a range. The same seed always yields the same stripes.
type RandomStripeGenerator struct {
	rnd       *rand.Rand
	palette   []colorful.Color
	current   int
	stripeMin int32
	stripeMax int32
}

// NewRandomStripeGenerator creates a generator. A nil palette picks random
// hues instead.
func NewRandomStripeGenerator(seed int64, palette []colorful.Color, stripeMin, stripeMax int32) *RandomStripeGenerator {
	g := new(RandomStripeGenerator)
	g.rnd = rand.New(rand.NewSource(seed))
	g.palette = palette
	g.current = -1
	if stripeMin < 1 {
		stripeMin = 1
	}
	if stripeMax < stripeMin {
		stripeMax = stripeMin
	}
	g.stripeMin = stripeMin
	g.stripeMax = stripeMax
	return g
}

// CreateStripe returns the next stripe.
func (g *RandomStripeGenerator) CreateStripe() Stripe {
	var colour colorful.Color
	switch len(g.palette) {
	case 0:
		colour = colorful.Hsl(g.rnd.Float64()*360.0, 1.0, 0.2)
	case 1:
		colour = g.palette[0]
	default:
		// choose a colour different from the previous one
		for {
			next := g.rnd.Intn(len(g.palette))
			if next != g.current {
				g.current = next
				break
			}
		}
		colour = g.palette[g.current]
	}

	length := g.stripeMin
	if g.stripeMax > g.stripeMin {
		length += g.rnd.Int31n(g.stripeMax - g.stripeMin + 1)
	}
	return Stripe{Colour: colour, Length: length}
}

// Generate returns n consecutive stripes.
func (g *RandomStripeGenerator) Generate(n int) []Stripe {
	stripes := make([]Stripe, 0, n)
	for i := 0; i < n; i++ {
		stripes = append(stripes, g.CreateStripe())
	}
	return stripes
}

// Span returns the total length of stripes.
func Span(stripes []Stripe) int {
	total := 0
	for _, s := range stripes {
		total += int(s.Length)
	}
	return total
}

// At returns the colour at position i along the repeating stripe pattern.
func At(stripes []Stripe, i int) colorful.Color {
	span := Span(stripes)
	if span == 0 {
		return colorful.Color{}
	}
	i %= span
	if i < 0 {
		i += span
	}
	for _, s := range stripes {
		if i < int(s.Length) {
			return s.Colour
		}
		i -= int(s.Length)
	}
	return stripes[len(stripes)-1].Colour
}
