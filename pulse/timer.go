// Package pulse delivers discrete time steps to subscribed animation roots.
package pulse

import (
	"context"
	"log/slog"
	"time"

	"github.com/matt-g-everett/ledtimeline/tick"
)

// A Receiver is invoked once per pulse while subscribed.
type Receiver interface {
	Pulse(step tick.Tick)
}

// A Source accepts subscriptions from receivers.
type Source interface {
	Subscribe(r Receiver)
	Unsubscribe(r Receiver)
}

// Timer is a Source that delivers a fixed tick step to its receivers, either
// when Pulse is called directly or from the Run loop.
type Timer struct {
	step      tick.Tick
	receivers []Receiver
	observers []func()
	commands  chan func()
	pulses    uint64
}

// NewTimer creates a Timer delivering step ticks per pulse.
func NewTimer(step tick.Tick) *Timer {
	t := new(Timer)
	t.step = step
	t.commands = make(chan func())
	return t
}

// Step returns the number of ticks delivered per pulse.
func (t *Timer) Step() tick.Tick {
	return t.step
}

// Pulses returns the number of pulses delivered so far.
func (t *Timer) Pulses() uint64 {
	return t.pulses
}

// Subscribe adds r. Subscribing an already subscribed receiver does nothing.
func (t *Timer) Subscribe(r Receiver) {
	if t.index(r) >= 0 {
		return
	}
	t.receivers = append(t.receivers, r)
}

// Unsubscribe removes r if present.
func (t *Timer) Unsubscribe(r Receiver) {
	i := t.index(r)
	if i < 0 {
		return
	}
	t.receivers = append(t.receivers[:i:i], t.receivers[i+1:]...)
}

// Subscribed reports whether r is currently receiving pulses.
func (t *Timer) Subscribed(r Receiver) bool {
	return t.index(r) >= 0
}

// Len returns the number of subscribed receivers.
func (t *Timer) Len() int {
	return len(t.receivers)
}

// OnPulse registers fn to run after every pulse, once all receivers have
// been delivered to.
func (t *Timer) OnPulse(fn func()) {
	t.observers = append(t.observers, fn)
}

// Pulse delivers one step to every receiver subscribed at the start of the
// pulse. A receiver unsubscribed by an earlier one in the same pulse is skipped.
func (t *Timer) Pulse() {
	t.pulses++
	snapshot := append([]Receiver(nil), t.receivers...)
	for _, r := range snapshot {
		if t.index(r) < 0 {
			continue
		}
		r.Pulse(t.step)
	}
	for _, fn := range t.observers {
		fn()
	}
}

// Do runs fn on the Run goroutine between pulses and waits for it to finish.
func (t *Timer) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		defer close(done)
		fn()
	}
	select {
	case t.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run pulses every interval until ctx is cancelled, executing commands
// submitted through Do between pulses.
func (t *Timer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("pulse timer running", "interval", interval, "step", int64(t.step), "stepMillis", t.step.Millis())
	for {
		select {
		case <-ctx.Done():
			slog.Info("pulse timer stopping", "pulses", t.pulses)
			return ctx.Err()
		case cmd := <-t.commands:
			cmd()
		case <-ticker.C:
			t.Pulse()
		}
	}
}

func (t *Timer) index(r Receiver) int {
	for i, s := range t.receivers {
		if s == r {
			return i
		}
	}
	return -1
}
