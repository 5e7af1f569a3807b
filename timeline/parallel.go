package timeline

import (
	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/tick"
)

// Parallel plays its children together. Every child starts at offset 0 and
// the cycle lasts as long as the longest child.
type Parallel struct {
	node
	children []Animation
}

// NewParallel creates a Parallel driven by src.
func NewParallel(src pulse.Source, children ...Animation) (*Parallel, error) {
	p := new(Parallel)
	p.setup(p, src)
	if err := p.Add(children...); err != nil {
		return nil, err
	}
	return p, nil
}

// Add appends children.
func (p *Parallel) Add(children ...Animation) error {
	return p.adopt(&p.children, children)
}

// Remove detaches child.
func (p *Parallel) Remove(child Animation) error {
	return p.release(&p.children, child)
}

// Children returns the children in insertion order.
func (p *Parallel) Children() []Animation {
	return append([]Animation(nil), p.children...)
}

func (p *Parallel) span() tick.Tick {
	var longest tick.Tick
	for _, ch := range p.children {
		if s := ch.core().slot(); s > longest {
			longest = s
		}
	}
	return longest
}

func (p *Parallel) arrange(pos tick.Tick, c cursor) {
	total := p.span()
	for _, ch := range p.children {
		k := ch.core()
		slot := k.slot()
		st := Stopped
		if c.status != Stopped && concurrentlyEngaged(pos, slot, total, c) {
			st = c.status
		}
		p.placeChild(k, clampOffset(pos, slot), c, st)
	}
}

func concurrentlyEngaged(p, slot, total tick.Tick, c cursor) bool {
	switch {
	case slot <= 0:
		return false
	case !c.land:
		return 0 < p && p < slot
	case c.dir > 0:
		return p < slot || (p == total && slot == total)
	default:
		return p <= slot
	}
}
