package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/fogleman/ease"

	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/tick"
)

// An Interpolator eases a linear fraction in [0, 1].
type Interpolator func(t float64) float64

// Transition is a leaf Animation that hands its eased position within the
// current cycle to an interpolate callback.
type Transition struct {
	node
	duration     tick.Tick
	interpolator Interpolator
	interpolate  func(fraction float64)
	applied      tick.Tick
	fired        bool
	stale        bool
}

// NewTransition creates a Transition with the given cycle duration. The
// callback is invoked whenever the position within the cycle changes; a new
// transition counts as already applied at position 0.
func NewTransition(src pulse.Source, cycle time.Duration, interpolate func(fraction float64)) (*Transition, error) {
	d := tick.FromDuration(cycle)
	if d <= 0 {
		return nil, &ValidationError{
			Code:    ErrCodeInvalidDuration,
			Field:   "cycle duration",
			Message: fmt.Sprintf("%v is shorter than one tick", cycle),
		}
	}
	if interpolate == nil {
		return nil, &ValidationError{
			Code:    ErrCodeMissingCallback,
			Field:   "interpolate",
			Message: "callback is nil",
		}
	}

	t := new(Transition)
	t.setup(t, src)
	t.duration = d
	t.interpolator = ease.Linear
	t.interpolate = interpolate
	return t, nil
}

// SetInterpolator sets the easing curve. nil restores linear. A leaf that has
// already interpolated is re-applied at its next placement, even if its
// position has not moved.
func (t *Transition) SetInterpolator(fn Interpolator) {
	if fn == nil {
		fn = ease.Linear
	}
	t.interpolator = fn
	if t.fired {
		t.stale = true
		t.invalidate()
	}
}

// Fraction returns the linear fraction last applied.
func (t *Transition) Fraction() float64 {
	return float64(t.applied) / float64(t.duration)
}

func (t *Transition) apply(pos tick.Tick) {
	if pos == t.applied && !t.stale {
		return
	}
	t.applied = pos
	t.fired = true
	t.stale = false
	t.interpolate(t.interpolator(float64(pos) / float64(t.duration)))
}

// Setter is a value cell a Transition can write to.
type Setter[T any] interface {
	Set(v T)
}

// Value is a plain Setter that remembers the last value set.
type Value[T any] struct {
	v T
}

// Set stores v.
func (c *Value[T]) Set(v T) { c.v = v }

// Get returns the last value set.
func (c *Value[T]) Get() T { return c.v }

// NewTween creates a Transition that writes lerp(from, to, fraction) to cell.
func NewTween[T any](src pulse.Source, cycle time.Duration, cell Setter[T], from, to T, lerp func(a, b T, f float64) T) (*Transition, error) {
	if cell == nil || lerp == nil {
		return nil, &ValidationError{
			Code:    ErrCodeMissingCallback,
			Field:   "tween",
			Message: "cell and lerp are required",
		}
	}
	return NewTransition(src, cycle, func(f float64) {
		cell.Set(lerp(from, to, f))
	})
}

// LerpInt64 interpolates between two integers, rounding half up.
func LerpInt64(a, b int64, f float64) int64 {
	return a + int64(math.Floor(float64(b-a)*f+0.5))
}

// LerpFloat64 interpolates between two floats.
func LerpFloat64(a, b float64, f float64) float64 {
	return a + (b-a)*f
}
