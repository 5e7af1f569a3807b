package timeline

import (
	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/tick"
)

// Sequential plays its children one after another. Each child occupies the
// half-open slot [offset, offset+span) of the composite's cycle, where span is
// the child's total duration divided by the magnitude of its rate.
type Sequential struct {
	node
	children []Animation
}

// NewSequential creates a Sequential driven by src, playing children in order.
func NewSequential(src pulse.Source, children ...Animation) (*Sequential, error) {
	s := new(Sequential)
	s.setup(s, src)
	if err := s.Add(children...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add appends children to the end of the sequence.
func (s *Sequential) Add(children ...Animation) error {
	return s.adopt(&s.children, children)
}

// Remove detaches child from the sequence.
func (s *Sequential) Remove(child Animation) error {
	return s.release(&s.children, child)
}

// Children returns the children in playback order.
func (s *Sequential) Children() []Animation {
	return append([]Animation(nil), s.children...)
}

func (s *Sequential) span() tick.Tick {
	var total tick.Tick
	for _, ch := range s.children {
		total = tick.Add(total, ch.core().slot())
	}
	return total
}

// arrange derives every child from position p within the current cycle.
// Children before p sit at their end and children after it at their start.
func (s *Sequential) arrange(p tick.Tick, c cursor) {
	active := -1
	if c.status != Stopped {
		active = s.engaged(p, c)
	}

	var offset tick.Tick
	for i, ch := range s.children {
		k := ch.core()
		slot := k.slot()
		o := tick.Tick(0)
		if offset != tick.Infinite {
			o = clampOffset(p-offset, slot)
		}
		offset = tick.Add(offset, slot)

		st := Stopped
		if i == active {
			st = c.status
		}
		s.placeChild(k, o, c, st)
	}
}

// engaged picks the child that reports the composite's status at p.
//
// Under motion only a child whose slot strictly contains p is engaged, so a
// boundary reached by a pulse has finished one child without starting the
// next. A landing engages the child that will play next: forward slots are
// [start, end) with the last child owning the very end, backward slots are
// (start, end] with the first child owning 0.
func (s *Sequential) engaged(p tick.Tick, c cursor) int {
	last := -1
	var start tick.Tick
	for i, ch := range s.children {
		slot := ch.core().slot()
		end := tick.Add(start, slot)
		switch {
		case slot <= 0:
		case !c.land:
			if start < p && p < end {
				return i
			}
		case c.dir > 0:
			if p < end {
				return i
			}
		default:
			if p <= end {
				return i
			}
		}
		if slot > 0 {
			last = i
		}
		start = end
	}
	if c.land && c.dir > 0 {
		return last
	}
	return -1
}
