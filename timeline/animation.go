// Package timeline implements a tree of animations whose playhead is driven by
// pulses from a pulse.Source.
//
// A tree is built from Transition leaves, which interpolate an external value,
// and Sequential or Parallel composites, which lay their children out on one
// timeline. Only the root of a tree is played, paused, stopped, jumped and
// pulsed. On every pulse or jump the root derives the position and status of
// every descendant from scratch, so the outcome depends only on the root's
// position, direction and status.
//
// All time arithmetic is done in tick.Tick. The tree is not safe for concurrent
// use, and interpolate callbacks must not call back into the tree that invoked
// them.
package timeline

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/tick"
)

// Indefinite is the cycle count of an animation that repeats forever.
const Indefinite = -1

// rates with a smaller magnitude count as 1 when laying out children.
const epsilon = 1e-12

// Animation is implemented by *Transition, *Sequential and *Parallel.
type Animation interface {
	Name() string
	SetName(name string)

	Status() Status
	Rate() float64
	SetRate(rate float64)
	CycleCount() int
	SetCycleCount(n int) error
	AutoReverse() bool
	SetAutoReverse(on bool)

	// CycleDuration is the length of one forward pass.
	CycleDuration() time.Duration
	// TotalDuration is CycleDuration times CycleCount.
	TotalDuration() time.Duration
	// CurrentTime is the playhead within the current cycle.
	CurrentTime() time.Duration
	// CurrentTicks is CurrentTime in ticks.
	CurrentTicks() tick.Tick
	// ElapsedTime is the playhead on the full multi-cycle timeline.
	ElapsedTime() time.Duration

	Parent() Animation
	SetOnFinished(fn func())

	Play()
	Pause()
	Stop()
	JumpTo(d time.Duration)
	Pulse(step tick.Tick)

	Snapshot() Snapshot

	core() *node
}

// cursor describes how a position was reached.
type cursor struct {
	dir    int    // +1 forward, -1 backward
	moving bool   // reached by continuous motion from a pulse
	land   bool   // engage children by the landing rule
	status Status // status of engaged nodes; Stopped engages nothing
}

// node holds the state shared by every Animation variant.
type node struct {
	self   Animation
	parent *node
	src    pulse.Source

	name        string
	status      Status
	rate        float64
	cycleCount  int
	autoReverse bool
	onFinished  func()

	elapsed tick.Tick
	cycle   int64
	pos     tick.Tick

	// settled marks a stopped subtree whose layout has not changed since it
	// was last placed.
	settled bool
}

func (n *node) setup(self Animation, src pulse.Source) {
	n.self = self
	n.src = src
	n.rate = 1
	n.cycleCount = 1
}

func (n *node) core() *node { return n }

// Name returns the animation's name.
func (n *node) Name() string { return n.name }

// SetName sets the name used in logs, errors and snapshots.
func (n *node) SetName(name string) { n.name = name }

// Status returns the lifecycle state.
func (n *node) Status() Status { return n.status }

// Rate returns the playback rate.
func (n *node) Rate() float64 { return n.rate }

// SetRate sets the playback rate. The sign selects the direction and the
// magnitude scales elapsed ticks. A rate of 0 holds a root in place.
func (n *node) SetRate(rate float64) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return
	}
	n.rate = rate
	n.invalidate()
}

// CycleCount returns the number of cycles, or Indefinite.
func (n *node) CycleCount() int { return n.cycleCount }

// SetCycleCount sets the number of cycles: at least 1, or Indefinite.
func (n *node) SetCycleCount(c int) error {
	if c == 0 || c < Indefinite {
		return &ValidationError{
			Code:    ErrCodeInvalidCycleCount,
			Field:   "cycle count",
			Message: fmt.Sprintf("%d is neither >= 1 nor indefinite", c),
		}
	}
	n.cycleCount = c
	n.invalidate()
	return nil
}

// AutoReverse reports whether odd cycles play backward.
func (n *node) AutoReverse() bool { return n.autoReverse }

// SetAutoReverse makes odd cycles play backward.
func (n *node) SetAutoReverse(on bool) {
	n.autoReverse = on
	n.invalidate()
}

func (n *node) CycleDuration() time.Duration { return n.cycleTicks().Duration() }
func (n *node) TotalDuration() time.Duration { return n.totalTicks().Duration() }
func (n *node) CurrentTime() time.Duration   { return n.pos.Duration() }
func (n *node) CurrentTicks() tick.Tick      { return n.pos }
func (n *node) ElapsedTime() time.Duration   { return n.elapsed.Duration() }

// Parent returns the composite owning this animation, or nil for a root.
func (n *node) Parent() Animation {
	if n.parent == nil {
		return nil
	}
	return n.parent.self
}

// SetOnFinished registers fn to run when the animation finishes playing.
func (n *node) SetOnFinished(fn func()) { n.onFinished = fn }

// Play starts or resumes the animation. Starting keeps the current position.
// Unless the playhead sits at the edge it starts from, the child under it is
// activated straight away. A finite timeline already at the edge it would
// finish on stops again at once.
func (n *node) Play() {
	if n.nested("play") {
		return
	}
	switch n.status {
	case Running:
		return
	case Paused:
		n.status = Running
		n.propagate(Running)
		n.subscribe()
		slog.Debug("animation resumed", "animation", n.label(), "elapsed", int64(n.elapsed))
		return
	}

	e := n.clamp(n.elapsed)
	dir := n.direction()
	if n.cycleCount != Indefinite && ((dir > 0 && e >= n.totalTicks()) || (dir < 0 && e <= 0)) {
		// already at the edge it would finish on
		n.place(e, cursor{dir: dir, land: true, status: Stopped})
		n.complete()
		return
	}
	_, pos, flipped, _ := n.locate(e, dir, false)
	if flipped {
		dir = -dir
	}
	atEdge := (dir > 0 && pos == 0) || (dir < 0 && pos == n.cycleTicks())
	n.place(e, cursor{dir: n.direction(), land: !atEdge, status: Running})
	n.subscribe()
	slog.Debug("animation playing", "animation", n.label(), "elapsed", int64(e), "rate", n.rate)
}

// Pause suspends a running animation, keeping its position.
func (n *node) Pause() {
	if n.nested("pause") || n.status != Running {
		return
	}
	n.status = Paused
	n.propagate(Paused)
	n.unsubscribe()
	slog.Debug("animation paused", "animation", n.label(), "elapsed", int64(n.elapsed))
}

// Stop stops the animation and every descendant. Positions and the last
// interpolated values are kept.
func (n *node) Stop() {
	if n.nested("stop") || n.status == Stopped {
		return
	}
	n.status = Stopped
	n.propagate(Stopped)
	n.unsubscribe()
	slog.Debug("animation stopped", "animation", n.label(), "elapsed", int64(n.elapsed))
}

// JumpTo moves the playhead to d on the full timeline, clamped to
// [0, TotalDuration]. Status is unchanged; leaves whose position changed are
// interpolated even while stopped.
func (n *node) JumpTo(d time.Duration) {
	if n.nested("jump") {
		return
	}
	e := n.clamp(tick.FromDuration(d))
	n.place(e, cursor{dir: n.direction(), land: true, status: n.status})
	slog.Debug("animation jumped", "animation", n.label(), "elapsed", int64(e), "status", n.status)
}

// Pulse advances a running root by step scaled by its rate.
func (n *node) Pulse(step tick.Tick) {
	if n.parent != nil || n.status != Running {
		return
	}
	delta := tick.Scale(step, n.rate)
	if delta == 0 {
		return
	}
	c := cursor{dir: 1, moving: true, status: Running}
	if delta < 0 {
		c.dir = -1
	}
	e := tick.Add(n.elapsed, delta)

	if n.cycleCount != Indefinite {
		total := n.totalTicks()
		if (c.dir > 0 && e >= total) || (c.dir < 0 && e <= 0) {
			n.place(n.clamp(e), c)
			n.complete()
			return
		}
	} else if e < 0 {
		e = n.wrap(e)
	}
	n.place(e, c)
}

// place positions n at elapsed e on its own timeline and derives its subtree.
func (n *node) place(e tick.Tick, c cursor) {
	k, pos, flipped, boundary := n.locate(e, c.dir, c.moving)
	n.elapsed = e
	n.cycle = k
	n.pos = pos
	n.status = c.status
	n.settled = c.status == Stopped

	if flipped {
		c.dir = -c.dir
	}
	if boundary && !n.autoReverse {
		// a new cycle starts from its edge rather than continuing from the last
		c.land = true
	}

	switch v := n.self.(type) {
	case *Transition:
		v.apply(pos)
	case *Sequential:
		v.arrange(pos, c)
	case *Parallel:
		v.arrange(pos, c)
	default:
		panic(fmt.Sprintf("timeline: unknown animation %T", n.self))
	}
}

// locate maps elapsed e to a cycle index and a position within that cycle.
// flipped reports an auto-reversed cycle. boundary reports that motion landed
// exactly on the seam between two cycles, which then belongs to the next cycle
// in the direction of travel.
func (n *node) locate(e tick.Tick, dir int, moving bool) (k int64, pos tick.Tick, flipped, boundary bool) {
	c := n.cycleTicks()
	if c <= 0 {
		return 0, 0, false, false
	}
	if c == tick.Infinite {
		if e < 0 {
			e = 0
		}
		return 0, e, false, false
	}

	var w tick.Tick
	finite := n.cycleCount != Indefinite
	switch {
	case finite && e <= 0:
		k, w = 0, 0
	case finite && e >= n.totalTicks():
		k, w = int64(n.cycleCount-1), c
	default:
		k, w = tick.FloorDiv(e, c)
		if moving && w == 0 {
			boundary = true
			if dir < 0 {
				k--
				w = c
			}
		}
	}

	flipped = n.autoReverse && k&1 != 0
	pos = w
	if flipped {
		pos = c - w
	}
	return k, pos, flipped, boundary
}

// complete finishes a root that reached the end of its timeline.
func (n *node) complete() {
	n.status = Stopped
	n.propagate(Stopped)
	n.unsubscribe()
	slog.Debug("animation finished", "animation", n.label(), "elapsed", int64(n.elapsed))
	if n.onFinished != nil {
		n.onFinished()
	}
}

// propagate moves every engaged descendant to st.
func (n *node) propagate(st Status) {
	for _, ch := range n.children() {
		k := ch.core()
		if k.status == Stopped {
			continue
		}
		k.status = st
		k.propagate(st)
	}
}

func (n *node) children() []Animation {
	switch v := n.self.(type) {
	case *Sequential:
		return v.children
	case *Parallel:
		return v.children
	}
	return nil
}

func (n *node) cycleTicks() tick.Tick {
	switch v := n.self.(type) {
	case *Transition:
		return v.duration
	case *Sequential:
		return v.span()
	case *Parallel:
		return v.span()
	}
	panic(fmt.Sprintf("timeline: unknown animation %T", n.self))
}

func (n *node) totalTicks() tick.Tick {
	c := n.cycleTicks()
	if n.cycleCount == Indefinite {
		if c == 0 {
			return 0
		}
		return tick.Infinite
	}
	return tick.Mul(c, int64(n.cycleCount))
}

// slot is the length of n on its parent's timeline.
func (n *node) slot() tick.Tick {
	total := n.totalTicks()
	r := math.Abs(n.rate)
	if r < epsilon || total == tick.Infinite {
		return total
	}
	return tick.Tick(math.Floor(float64(total)/r + 0.5))
}

// localAt converts an offset into n's slot into elapsed ticks on n's own
// timeline.
func (n *node) localAt(o tick.Tick) tick.Tick {
	total := n.totalTicks()
	if total == tick.Infinite {
		return tick.Scale(o, n.magnitude())
	}
	var l tick.Tick
	if o >= n.slot() {
		l = total
	} else {
		l = tick.Scale(o, n.magnitude())
		if l > total {
			l = total
		}
	}
	if n.rate < 0 {
		l = total - l
	}
	return l
}

func (n *node) magnitude() float64 {
	r := math.Abs(n.rate)
	if r < epsilon {
		return 1
	}
	return r
}

func (n *node) sign() int {
	if n.rate < 0 {
		return -1
	}
	return 1
}

func (n *node) direction() int { return n.sign() }

// clamp limits e to the root's timeline.
func (n *node) clamp(e tick.Tick) tick.Tick {
	if e < 0 {
		return 0
	}
	if total := n.totalTicks(); e > total {
		return total
	}
	return e
}

// wrap lifts a negative elapsed on an indefinite root into [0, 2*cycle),
// preserving the parity of the cycle index.
func (n *node) wrap(e tick.Tick) tick.Tick {
	c := n.cycleTicks()
	if c <= 0 {
		return 0
	}
	period := tick.Mul(c, 2)
	if period == tick.Infinite {
		return e
	}
	_, r := tick.FloorDiv(e, period)
	return r
}

func (n *node) invalidate() {
	for p := n; p != nil; p = p.parent {
		p.settled = false
	}
}

func (n *node) root() *node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (n *node) subscribe() {
	if n.src != nil {
		n.src.Subscribe(n.self)
	}
}

func (n *node) unsubscribe() {
	if n.src != nil {
		n.src.Unsubscribe(n.self)
	}
}

// nested reports, and logs, an operation attempted on a non-root animation.
func (n *node) nested(op string) bool {
	if n.parent == nil {
		return false
	}
	slog.Warn("ignoring operation on nested animation", "op", op, "animation", n.label(), "parent", n.parent.label())
	return true
}

// notifyFinished runs the finished callback of a child that played to its end.
func (n *node) notifyFinished() {
	slog.Debug("child finished", "animation", n.label())
	if n.onFinished != nil {
		n.onFinished()
	}
}

func (n *node) label() string {
	if n.name != "" {
		return n.name
	}
	return fmt.Sprintf("%T", n.self)
}
