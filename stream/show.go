package stream

import (
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/stream/stripe"
	"github.com/matt-g-everett/ledtimeline/timeline"
	"github.com/matt-g-everett/ledtimeline/util"
)

// Step kinds.
const (
	KindFade       = "fade"
	KindSweep      = "sweep"
	KindTrail      = "trail"
	KindStreak     = "streak"
	KindTwinkle    = "twinkle"
	KindStripes    = "stripes"
	KindSequential = "sequential"
	KindParallel   = "parallel"
)

// Range selects pixels [Start, End) of the frame.
type Range struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Step describes one node of a show.
type Step struct {
	Kind        string        `yaml:"kind"`
	Name        string        `yaml:"name"`
	Duration    time.Duration `yaml:"duration"`
	Easing      string        `yaml:"easing"`
	Rate        *float64      `yaml:"rate"`
	CycleCount  int           `yaml:"cycleCount"`
	AutoReverse bool          `yaml:"autoReverse"`
	Segment     *Range        `yaml:"segment"`

	// hex colours: From is the start or background, To the end or foreground
	From string `yaml:"from"`
	To   string `yaml:"to"`

	// sweep and trail
	Gradient   GradientTable `yaml:"gradient"`
	Saturation *float64      `yaml:"saturation"`
	Luminance  *float64      `yaml:"luminance"`

	// trail and streak length, twinkle particle count, stripe count
	Length int   `yaml:"length"`
	Seed   int64 `yaml:"seed"`

	// stripes
	Palette   []string `yaml:"palette"`
	StripeMin int32    `yaml:"stripeMin"`
	StripeMax int32    `yaml:"stripeMax"`

	Steps []Step `yaml:"steps"`
}

// BuildShow builds the animation tree described by step. Its root is driven
// by src and every effect draws into frame.
func BuildShow(src pulse.Source, frame *Frame, step Step) (timeline.Animation, error) {
	return build(src, frame, step, rootLabel(step))
}

func rootLabel(step Step) string {
	if step.Name != "" {
		return step.Name
	}
	return "show"
}

func build(src pulse.Source, frame *Frame, step Step, path string) (timeline.Animation, error) {
	a, err := buildNode(src, frame, step, path)
	if err != nil {
		return nil, err
	}
	if err := configure(a, step); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func buildNode(src pulse.Source, frame *Frame, step Step, path string) (timeline.Animation, error) {
	switch step.Kind {
	case KindSequential, KindParallel:
		children := make([]timeline.Animation, 0, len(step.Steps))
		for i, s := range step.Steps {
			label := s.Name
			if label == "" {
				label = fmt.Sprintf("%d", i)
			}
			ch, err := build(nil, frame, s, path+"/"+label)
			if err != nil {
				return nil, err
			}
			children = append(children, ch)
		}
		var (
			a   timeline.Animation
			err error
		)
		if step.Kind == KindSequential {
			a, err = timeline.NewSequential(src, children...)
		} else {
			a, err = timeline.NewParallel(src, children...)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return a, nil
	}

	tr, err := buildEffect(src, frame, step)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	curve, err := util.Easing(step.Easing)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tr.SetInterpolator(curve)
	return tr, nil
}

func buildEffect(src pulse.Source, frame *Frame, step Step) (*timeline.Transition, error) {
	seg := Whole(frame)
	if step.Segment != nil {
		seg = Segment{Frame: frame, Start: step.Segment.Start, End: step.Segment.End}
	}
	tone := DefaultTone
	if step.Saturation != nil {
		tone.Saturation = *step.Saturation
	}
	if step.Luminance != nil {
		tone.Luminance = *step.Luminance
	}
	gradient := step.Gradient
	if gradient == nil {
		gradient = Rainbow
	}

	switch step.Kind {
	case KindFade:
		from, to, err := colours(step.From, step.To)
		if err != nil {
			return nil, err
		}
		return NewFade(src, seg, from, to, step.Duration)
	case KindSweep:
		return NewSweep(src, seg, gradient, tone, step.Duration)
	case KindTrail:
		return NewTrail(src, seg, gradient, tone, orDefault(step.Length, seg.Len()), step.Duration)
	case KindStreak:
		colour, back, err := colours(step.To, step.From)
		if err != nil {
			return nil, err
		}
		return NewStreak(src, seg, colour, back, orDefault(step.Length, 10), step.Duration)
	case KindTwinkle:
		fore, back, err := colours(step.To, step.From)
		if err != nil {
			return nil, err
		}
		return NewTwinkle(src, seg, fore, back, orDefault(step.Length, max(seg.Len()/8, 1)), step.Seed, step.Duration)
	case KindStripes:
		palette := make([]colorful.Color, 0, len(step.Palette))
		for _, hex := range step.Palette {
			c, err := colorful.Hex(hex)
			if err != nil {
				return nil, fmt.Errorf("palette: %w", err)
			}
			palette = append(palette, c)
		}
		g := stripe.NewRandomStripeGenerator(step.Seed, palette, orDefault32(step.StripeMin, 20), orDefault32(step.StripeMax, 100))
		return NewStripes(src, seg, g.Generate(orDefault(step.Length, 8)), step.Duration)
	case "":
		return nil, fmt.Errorf("missing kind")
	}
	return nil, fmt.Errorf("unknown kind %q", step.Kind)
}

// configure applies the timing properties shared by every kind.
func configure(a timeline.Animation, step Step) error {
	a.SetName(step.Name)
	if step.Rate != nil {
		a.SetRate(*step.Rate)
	}
	if step.CycleCount != 0 {
		if err := a.SetCycleCount(step.CycleCount); err != nil {
			return err
		}
	}
	a.SetAutoReverse(step.AutoReverse)
	return nil
}

func colours(a, b string) (colorful.Color, colorful.Color, error) {
	ca, err := colorful.Hex(a)
	if err != nil {
		return colorful.Color{}, colorful.Color{}, fmt.Errorf("colour %q: %w", a, err)
	}
	cb, err := colorful.Hex(b)
	if err != nil {
		return colorful.Color{}, colorful.Color{}, fmt.Errorf("colour %q: %w", b, err)
	}
	return ca, cb, nil
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func orDefault32(v, d int32) int32 {
	if v <= 0 {
		return d
	}
	return v
}
