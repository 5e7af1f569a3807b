package stream

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/fogleman/ease"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/stream/stripe"
	"github.com/matt-g-everett/ledtimeline/timeline"
	"github.com/matt-g-everett/ledtimeline/util"
)

// Segment is the half-open pixel range [Start, End) of a Frame.
type Segment struct {
	Frame *Frame
	Start int
	End   int
}

// Whole returns a Segment covering every pixel of f.
func Whole(f *Frame) Segment {
	return Segment{Frame: f, Start: 0, End: f.Len()}
}

// Len returns the number of pixels in the segment.
func (s Segment) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

func (s Segment) validate() error {
	if s.Frame == nil {
		return fmt.Errorf("segment has no frame")
	}
	if s.Start < 0 || s.End > s.Frame.Len() || s.Start >= s.End {
		return fmt.Errorf("segment [%d, %d) is outside a frame of %d pixels", s.Start, s.End, s.Frame.Len())
	}
	return nil
}

func (s Segment) fill(c colorful.Color) {
	for i := s.Start; i < s.End; i++ {
		s.Frame.Set(i, c)
	}
}

// Tone is the chroma and luminance gradient colours are rendered at.
type Tone struct {
	Saturation float64
	Luminance  float64
}

// DefaultTone is dim enough for a strip viewed indoors.
var DefaultTone = Tone{Saturation: 1.0, Luminance: 0.05}

// NewFade creates a leaf that blends the whole segment from one colour to
// another.
func NewFade(src pulse.Source, seg Segment, from, to colorful.Color, d time.Duration) (*timeline.Transition, error) {
	if err := seg.validate(); err != nil {
		return nil, err
	}
	return timeline.NewTransition(src, d, func(f float64) {
		seg.fill(from.BlendHcl(to, f).Clamped())
	})
}

// NewSweep creates a leaf that fills the segment with the gradient colour at
// the current fraction.
func NewSweep(src pulse.Source, seg Segment, g GradientTable, tone Tone, d time.Duration) (*timeline.Transition, error) {
	if err := seg.validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return timeline.NewTransition(src, d, func(f float64) {
		seg.fill(g.GetColor(f, tone.Saturation, tone.Luminance).Clamped())
	})
}

// NewTrail creates a leaf that scrolls a gradient of trailLength pixels along
// the segment, moving one full trail length per cycle.
func NewTrail(src pulse.Source, seg Segment, g GradientTable, tone Tone, trailLength int, d time.Duration) (*timeline.Transition, error) {
	if err := seg.validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if trailLength <= 0 {
		return nil, fmt.Errorf("trail length must be positive, got %d", trailLength)
	}
	n := float64(trailLength)
	return timeline.NewTransition(src, d, func(f float64) {
		current := f * n
		for i := seg.Start; i < seg.End; i++ {
			t := math.Mod(float64(i-seg.Start)+n-current, n) / n
			seg.Frame.Set(i, g.GetColor(t, tone.Saturation, tone.Luminance).Clamped())
		}
	})
}

// NewStreak creates a leaf that runs a band of streakLength pixels across the
// segment over a background, fading it in over the first half and out over
// the second.
func NewStreak(src pulse.Source, seg Segment, colour, back colorful.Color, streakLength int, d time.Duration) (*timeline.Transition, error) {
	if err := seg.validate(); err != nil {
		return nil, err
	}
	if streakLength <= 0 {
		return nil, fmt.Errorf("streak length must be positive, got %d", streakLength)
	}
	travel := float64(seg.Len() + streakLength)
	return timeline.NewTransition(src, d, func(f float64) {
		seg.fill(back)
		head := float64(seg.Start-streakLength) + f*travel
		gain := streakGain(f)
		start := int(math.Ceil(head))
		end := int(math.Floor(head + float64(streakLength)))
		for i := max(start, seg.Start); i <= end && i < seg.End; i++ {
			seg.Frame.Set(i, back.BlendHcl(colour, gain).Clamped())
		}
	})
}

// streakGain rises from 0 to 1 at the midpoint and falls back to 0.
func streakGain(f float64) float64 {
	d := f * 2
	if d > 1 {
		d = 2 - d
	}
	return ease.InOutQuad(d)
}

// NewTwinkle creates a leaf that scintillates particles pixels over a
// background. Particle positions and phases come from seed, so a given seed
// always renders the same frames.
func NewTwinkle(src pulse.Source, seg Segment, fore, back colorful.Color, particles int, seed int64, d time.Duration) (*timeline.Transition, error) {
	if err := seg.validate(); err != nil {
		return nil, err
	}
	if particles <= 0 || particles > seg.Len() {
		return nil, fmt.Errorf("twinkle needs between 1 and %d particles, got %d", seg.Len(), particles)
	}

	rnd := rand.New(rand.NewSource(seed))
	positions := rnd.Perm(seg.Len())[:particles]
	phases := make([]float64, particles)
	for i := range phases {
		phases[i] = rnd.Float64()
	}
	lut := util.GenerateLut(64)

	return timeline.NewTransition(src, d, func(f float64) {
		seg.fill(back)
		for i, p := range positions {
			gain := util.LutAt(lut, math.Mod(f+phases[i], 1))
			seg.Frame.Set(seg.Start+p, back.BlendHcl(fore, gain).Clamped())
		}
	})
}

// NewStripes creates a leaf that scrolls a repeating pattern of stripes along
// the segment, moving the whole pattern once per cycle.
func NewStripes(src pulse.Source, seg Segment, stripes []stripe.Stripe, d time.Duration) (*timeline.Transition, error) {
	if err := seg.validate(); err != nil {
		return nil, err
	}
	span := stripe.Span(stripes)
	if span == 0 {
		return nil, fmt.Errorf("stripes are empty")
	}
	return timeline.NewTransition(src, d, func(f float64) {
		offset := int(math.Floor(f * float64(span)))
		for i := seg.Start; i < seg.End; i++ {
			seg.Frame.Set(i, stripe.At(stripes, i-seg.Start-offset))
		}
	})
}
