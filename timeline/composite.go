package timeline

import (
	"fmt"
	"log/slog"

	"github.com/matt-g-everett/ledtimeline/tick"
)

// adopt validates and attaches children to n, appending them to kids.
func (n *node) adopt(kids *[]Animation, children []Animation) error {
	if err := n.mutable("add"); err != nil {
		return err
	}
	seen := make(map[*node]bool, len(children))
	for _, ch := range children {
		if ch == nil {
			return &StateError{Code: ErrCodeNotChild, Op: "add", Animation: n.label(), Message: "nil child"}
		}
		k := ch.core()
		switch {
		case k.parent != nil || seen[k]:
			return &StateError{
				Code:      ErrCodeHasParent,
				Op:        "add",
				Animation: k.label(),
				Message:   "already owned by a composite",
			}
		case k.status != Stopped:
			return &StateError{
				Code:      ErrCodeNotStopped,
				Op:        "add",
				Animation: k.label(),
				Message:   fmt.Sprintf("child is %s", k.status),
			}
		case k.encloses(n):
			return &StateError{
				Code:      ErrCodeCycle,
				Op:        "add",
				Animation: k.label(),
				Message:   fmt.Sprintf("would contain %s", n.label()),
			}
		}
		seen[k] = true
	}

	for _, ch := range children {
		k := ch.core()
		k.unsubscribe()
		k.parent = n
		*kids = append(*kids, ch)
	}
	n.restructured()
	return nil
}

// release detaches child from n, removing it from kids.
func (n *node) release(kids *[]Animation, child Animation) error {
	if err := n.mutable("remove"); err != nil {
		return err
	}
	for i, ch := range *kids {
		if ch != child {
			continue
		}
		k := ch.core()
		*kids = append((*kids)[:i:i], (*kids)[i+1:]...)
		k.parent = nil
		if k.status != Stopped {
			k.status = Stopped
			k.propagate(Stopped)
		}
		n.restructured()
		return nil
	}
	name := "<nil>"
	if child != nil {
		name = child.core().label()
	}
	return &StateError{
		Code:      ErrCodeNotChild,
		Op:        "remove",
		Animation: name,
		Message:   fmt.Sprintf("not a child of %s", n.label()),
	}
}

// mutable rejects structural changes while the owning tree is running.
func (n *node) mutable(op string) error {
	r := n.root()
	if r.status == Running {
		return &StateError{
			Code:      ErrCodeRunning,
			Op:        op,
			Animation: n.label(),
			Message:   fmt.Sprintf("tree %s is running", r.label()),
		}
	}
	return nil
}

// encloses reports whether other is n or one of n's descendants.
func (n *node) encloses(other *node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *node) restructured() {
	n.invalidate()
	r := n.root()
	r.elapsed = r.clamp(r.elapsed)
	slog.Debug("composite changed", "animation", n.label(), "children", len(n.children()))
}

// placeChild positions child k at offset o into its slot, engaging it with st.
func (n *node) placeChild(k *node, o tick.Tick, c cursor, st Status) {
	e := k.localAt(o)
	if st == Stopped && k.settled && k.status == Stopped && k.elapsed == e {
		return
	}
	wasRunning := k.status == Running

	kc := c
	kc.status = st
	kc.dir = c.dir * k.sign()
	k.place(e, kc)

	if c.moving && wasRunning && k.status == Stopped {
		k.notifyFinished()
	}
}

func clampOffset(o, slot tick.Tick) tick.Tick {
	if o < 0 {
		return 0
	}
	if o > slot {
		return slot
	}
	return o
}
