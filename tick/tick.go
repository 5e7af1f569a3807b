// Package tick converts between wall-clock durations and the fixed-granularity
// integer ticks that all timeline arithmetic is done in.
//
// A tick is 1/6000th of a second. Conversions round half up exactly once, so
// repeated pulses never accumulate rounding error.
package tick

import (
	"math"
	"time"
)

// Tick is the internal unit of time.
type Tick int64

const (
	// PerSecond is the number of ticks in one second.
	PerSecond Tick = 6000

	// Step is the nominal pulse step: one frame at 60 frames per second.
	Step Tick = PerSecond / 60

	// Infinite marks a duration that never ends.
	Infinite Tick = math.MaxInt64
)

const nanosPerSecond = int64(time.Second)

// FromDuration converts d to ticks, rounding half up.
func FromDuration(d time.Duration) Tick {
	s := int64(d) / nanosPerSecond
	r := int64(d) % nanosPerSecond
	if r < 0 {
		s--
		r += nanosPerSecond
	}
	return Tick(s*int64(PerSecond) + roundDiv(r*int64(PerSecond), nanosPerSecond))
}

// PerFrame returns the tick step for a frame rate, rounded half up.
func PerFrame(fps int) Tick {
	if fps <= 0 {
		return Step
	}
	return Tick(roundDiv(int64(PerSecond), int64(fps)))
}

// Duration converts t back to a time.Duration, rounding half up to the
// nearest nanosecond. Values outside the time.Duration range saturate.
func (t Tick) Duration() time.Duration {
	if t == Infinite {
		return time.Duration(math.MaxInt64)
	}
	q := int64(t) / int64(PerSecond)
	m := int64(t) % int64(PerSecond)
	if m < 0 {
		q--
		m += int64(PerSecond)
	}
	if q > math.MaxInt64/nanosPerSecond-1 {
		return time.Duration(math.MaxInt64)
	}
	if q < math.MinInt64/nanosPerSecond+1 {
		return time.Duration(math.MinInt64)
	}
	return time.Duration(q*nanosPerSecond + roundDiv(m*nanosPerSecond, int64(PerSecond)))
}

// Millis returns t in (fractional) milliseconds.
func (t Tick) Millis() float64 {
	return float64(t) * 1000 / float64(PerSecond)
}

func (t Tick) String() string {
	if t == Infinite {
		return "indefinite"
	}
	return t.Duration().String()
}

// Scale multiplies t by f, rounding half up. Infinite stays infinite for any
// non-zero factor.
func Scale(t Tick, f float64) Tick {
	if t == Infinite {
		if f == 0 {
			return 0
		}
		return Infinite
	}
	v := math.Floor(float64(t)*f + 0.5)
	if v >= math.MaxInt64 {
		return Infinite
	}
	return Tick(v)
}

// Add returns a+b, saturating at Infinite.
func Add(a, b Tick) Tick {
	if a == Infinite || b == Infinite {
		return Infinite
	}
	if b > 0 && a > Infinite-b {
		return Infinite
	}
	return a + b
}

// Mul returns t*n for n >= 0, saturating at Infinite.
func Mul(t Tick, n int64) Tick {
	switch {
	case t == 0 || n == 0:
		return 0
	case t == Infinite || n > int64(Infinite/t):
		return Infinite
	}
	return t * Tick(n)
}

// FloorDiv returns floor(a/b) and the non-negative remainder for b > 0.
func FloorDiv(a, b Tick) (int64, Tick) {
	q := a / b
	r := a % b
	if r < 0 {
		q--
		r += b
	}
	return int64(q), r
}

// roundDiv returns n/d rounded half up for n >= 0 and d > 0.
func roundDiv(n, d int64) int64 {
	return (2*n + d) / (2 * d)
}
