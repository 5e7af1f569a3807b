package timeline

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/tick"
)

func newLeaf(t *testing.T, d time.Duration) *Transition {
	t.Helper()
	tr, err := NewTransition(nil, d, func(float64) {})
	require.NoError(t, err)
	return tr
}

func TestAddWhileRunningFails(t *testing.T) {
	timer := pulse.NewTimer(tick.Step)
	st, err := NewSequential(timer, newLeaf(t, time.Second))
	require.NoError(t, err)

	st.Play()
	err = st.Add(newLeaf(t, time.Second))
	require.Error(t, err)
	assert.True(t, IsStateError(err))
	assert.Equal(t, ErrCodeRunning, CodeOf(err))

	err = st.Remove(st.Children()[0])
	assert.Equal(t, ErrCodeRunning, CodeOf(err))

	st.Pause()
	require.NoError(t, st.Add(newLeaf(t, time.Second)))
	assert.Len(t, st.Children(), 2)
}

func TestAddRejectsInvalidChildren(t *testing.T) {
	timer := pulse.NewTimer(tick.Step)
	leaf := newLeaf(t, time.Second)
	owner, err := NewParallel(nil, leaf)
	require.NoError(t, err)

	running, err := NewTransition(timer, time.Second, func(float64) {})
	require.NoError(t, err)
	running.Play()

	free, err := NewSequential(nil)
	require.NoError(t, err)
	inner, err := NewSequential(nil)
	require.NoError(t, err)
	outer, err := NewSequential(nil, inner)
	require.NoError(t, err)

	tests := []struct {
		name   string
		target *Sequential
		child  Animation
		code   ErrorCode
	}{
		{"owned by another composite", free, leaf, ErrCodeHasParent},
		{"running root", free, running, ErrCodeNotStopped},
		{"itself", free, free, ErrCodeCycle},
		{"its own ancestor", inner, outer, ErrCodeCycle},
		{"nil", free, nil, ErrCodeNotChild},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Add(tt.child)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Empty(t, tt.target.Children())
		})
	}

	assert.Equal(t, Animation(owner), leaf.Parent())
}

func TestAddDuplicateInOneCall(t *testing.T) {
	leaf := newLeaf(t, time.Second)
	st, err := NewSequential(nil)
	require.NoError(t, err)

	err = st.Add(leaf, leaf)
	assert.Equal(t, ErrCodeHasParent, CodeOf(err))
	assert.Empty(t, st.Children())
	assert.Nil(t, leaf.Parent())
}

func TestRemove(t *testing.T) {
	a, b := newLeaf(t, time.Second), newLeaf(t, 2*time.Second)
	st, err := NewSequential(nil, a, b)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, st.TotalDuration())

	require.NoError(t, st.Remove(a))
	assert.Nil(t, a.Parent())
	assert.Equal(t, []Animation{b}, st.Children())
	assert.Equal(t, 2*time.Second, st.TotalDuration())

	err = st.Remove(a)
	assert.True(t, IsStateError(err))
	assert.Equal(t, ErrCodeNotChild, CodeOf(err))

	other, err := NewParallel(nil, a)
	require.NoError(t, err)
	assert.Equal(t, Animation(other), a.Parent())
}

func TestRemoveShrinksRootPlayhead(t *testing.T) {
	a, b := newLeaf(t, time.Second), newLeaf(t, time.Second)
	st, err := NewSequential(nil, a, b)
	require.NoError(t, err)

	st.JumpTo(2 * time.Second)
	require.NoError(t, st.Remove(b))
	assert.Equal(t, time.Second, st.ElapsedTime())
}

func TestRemovePausedChildStopsIt(t *testing.T) {
	timer := pulse.NewTimer(tick.Step)
	a := newLeaf(t, time.Second)
	st, err := NewSequential(timer, a)
	require.NoError(t, err)

	st.Play()
	timer.Pulse()
	st.Pause()
	require.Equal(t, Paused, a.Status())

	require.NoError(t, st.Remove(a))
	assert.Equal(t, Stopped, a.Status())
	assert.False(t, timer.Subscribed(a))
}

func TestNestedOperationsAreIgnored(t *testing.T) {
	timer := pulse.NewTimer(tick.Step)
	x := &Value[int64]{}
	leaf, err := NewTween[int64](timer, time.Second, x, 0, 100, LerpInt64)
	require.NoError(t, err)
	st, err := NewSequential(timer, leaf, newLeaf(t, time.Second))
	require.NoError(t, err)

	leaf.Play()
	assert.Equal(t, Stopped, leaf.Status())
	assert.False(t, timer.Subscribed(leaf))

	leaf.JumpTo(500 * time.Millisecond)
	assert.Equal(t, int64(0), x.Get())

	st.Play()
	timer.Pulse()
	require.Equal(t, Running, leaf.Status())

	leaf.Pause()
	leaf.Stop()
	leaf.Pulse(tick.PerSecond)
	assert.Equal(t, Running, leaf.Status())
	assert.Equal(t, tick.Step, leaf.CurrentTicks())
}

func TestAddingUnsubscribesChild(t *testing.T) {
	timer := pulse.NewTimer(tick.Step)
	leaf, err := NewTransition(timer, time.Second, func(float64) {})
	require.NoError(t, err)
	leaf.Play()
	leaf.Stop()

	st, err := NewSequential(timer, leaf)
	require.NoError(t, err)
	st.Play()
	assert.Equal(t, 1, timer.Len())
	assert.True(t, timer.Subscribed(st))
}

func TestCycleCountValidation(t *testing.T) {
	leaf := newLeaf(t, time.Second)

	for _, n := range []int{0, -2, -100} {
		err := leaf.SetCycleCount(n)
		require.Error(t, err, "count %d", n)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, ErrCodeInvalidCycleCount, CodeOf(err))
	}
	assert.Equal(t, 1, leaf.CycleCount())

	require.NoError(t, leaf.SetCycleCount(Indefinite))
	assert.Equal(t, tick.Infinite, leaf.slot())
	assert.Equal(t, time.Second, leaf.CycleDuration())
}

func TestSetRateIgnoresNonFinite(t *testing.T) {
	leaf := newLeaf(t, time.Second)
	leaf.SetRate(2)
	leaf.SetRate(math.NaN())
	leaf.SetRate(math.Inf(-1))
	assert.Equal(t, float64(2), leaf.Rate())
}

func TestIndefiniteRootKeepsRunning(t *testing.T) {
	timer := pulse.NewTimer(tick.PerSecond / 2)
	x := &Value[int64]{}
	leaf, err := NewTween[int64](timer, time.Second, x, 0, 100, LerpInt64)
	require.NoError(t, err)
	require.NoError(t, leaf.SetCycleCount(Indefinite))
	leaf.SetAutoReverse(true)

	leaf.Play()
	want := []int64{50, 100, 50, 0, 50, 100}
	for i, v := range want {
		timer.Pulse()
		assert.Equal(t, v, x.Get(), "pulse %d", i+1)
	}
	assert.Equal(t, Running, leaf.Status())
	assert.Equal(t, 3*time.Second, leaf.ElapsedTime())
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			&StateError{Code: ErrCodeRunning, Op: "add", Animation: "show", Message: "tree show is running"},
			"timeline: add show: tree show is running (RUNNING)",
		},
		{
			&StateError{Code: ErrCodeNotChild, Op: "remove", Message: "nil child"},
			"timeline: remove: nil child (NOT_CHILD)",
		},
		{
			&ValidationError{Code: ErrCodeInvalidDuration, Field: "cycle duration", Message: "0s is shorter than one tick"},
			"timeline: invalid cycle duration: 0s is shorter than one tick (INVALID_DURATION)",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}

	wrapped := fmt.Errorf("building show: %w", &ValidationError{Code: ErrCodeMissingCallback})
	assert.Equal(t, ErrCodeMissingCallback, CodeOf(wrapped))
	assert.False(t, IsStateError(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("other")))
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{Stopped, Paused, Running} {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var got Status
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "PAUSED", Paused.String())
	assert.Equal(t, "Status(7)", Status(7).String())

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("SLEEPING")))
}
