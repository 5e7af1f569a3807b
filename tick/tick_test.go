package tick

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromDuration(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want Tick
	}{
		{"zero", 0, 0},
		{"one second", time.Second, 6000},
		{"one minute", time.Minute, 360000},
		{"seventy seconds", 70 * time.Second, 420000},
		{"one tick rounded up", 166667 * time.Nanosecond, 1},
		{"half tick rounds up", 83334 * time.Nanosecond, 1},
		{"below half rounds down", 83333 * time.Nanosecond, 0},
		{"negative second", -time.Second, -6000},
		{"negative half tick rounds up", -83333 * time.Nanosecond, 0},
		{"negative fraction", -100 * time.Millisecond, -600},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FromDuration(tc.in))
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), Tick(0).Duration())
	assert.Equal(t, time.Second, Tick(6000).Duration())
	assert.Equal(t, 16666667*time.Nanosecond, Tick(100).Duration())
	assert.Equal(t, -16666667*time.Nanosecond, Tick(-100).Duration())
	assert.Equal(t, time.Duration(math.MaxInt64), Infinite.Duration())
}

func TestRoundTrip(t *testing.T) {
	for _, v := range []Tick{-360001, -100, -1, 0, 1, 17, 100, 5999, 6000, 359900, 420000, 1 << 40} {
		assert.Equal(t, v, FromDuration(v.Duration()), "tick %d", int64(v))
	}
}

func TestRoundTripDoesNotDriftAcrossPulses(t *testing.T) {
	var elapsed Tick
	for i := 0; i < 4200; i++ {
		elapsed += Step
	}
	assert.Equal(t, FromDuration(70*time.Second), elapsed)
	assert.Equal(t, 70*time.Second, elapsed.Duration())
}

func TestMillis(t *testing.T) {
	assert.InDelta(t, 16.6666, Tick(100).Millis(), 0.001)
	assert.Equal(t, float64(1000), PerSecond.Millis())
}

func TestPerFrame(t *testing.T) {
	assert.Equal(t, Tick(100), PerFrame(60))
	assert.Equal(t, Tick(200), PerFrame(30))
	assert.Equal(t, Tick(240), PerFrame(25))
	assert.Equal(t, Step, PerFrame(0))
}

func TestScale(t *testing.T) {
	assert.Equal(t, Tick(200), Scale(100, 2))
	assert.Equal(t, Tick(-100), Scale(100, -1))
	assert.Equal(t, Tick(180000), Scale(360000, 0.5))
	assert.Equal(t, Tick(2), Scale(3, 0.5))
	assert.Equal(t, Tick(0), Scale(Infinite, 0))
	assert.Equal(t, Infinite, Scale(Infinite, 0.5))
}

func TestSaturatingArithmetic(t *testing.T) {
	assert.Equal(t, Tick(30), Add(10, 20))
	assert.Equal(t, Infinite, Add(Infinite, 1))
	assert.Equal(t, Infinite, Add(Infinite-1, 5))
	assert.Equal(t, Tick(720000), Mul(360000, 2))
	assert.Equal(t, Tick(0), Mul(Infinite, 0))
	assert.Equal(t, Infinite, Mul(Infinite, 3))
	assert.Equal(t, Infinite, Mul(1<<40, 1<<40))
}

func TestFloorDiv(t *testing.T) {
	q, r := FloorDiv(250, 100)
	assert.Equal(t, int64(2), q)
	assert.Equal(t, Tick(50), r)

	q, r = FloorDiv(-100, 420000)
	assert.Equal(t, int64(-1), q)
	assert.Equal(t, Tick(419900), r)

	q, r = FloorDiv(-420000, 420000)
	assert.Equal(t, int64(-1), q)
	assert.Equal(t, Tick(0), r)
}

func TestString(t *testing.T) {
	assert.Equal(t, "1s", Tick(6000).String())
	assert.Equal(t, "indefinite", Infinite.String())
}
