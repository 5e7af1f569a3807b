package timeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/matt-g-everett/ledtimeline/tick"
)

// Snapshot is a point-in-time copy of an animation tree's state.
type Snapshot struct {
	Name        string     `json:"name,omitempty"`
	Kind        string     `json:"kind"`
	Status      Status     `json:"status"`
	Rate        float64    `json:"rate"`
	CycleCount  int        `json:"cycleCount"`
	AutoReverse bool       `json:"autoReverse,omitempty"`
	Current     tick.Tick  `json:"current"`
	Elapsed     tick.Tick  `json:"elapsed"`
	Cycle       tick.Tick  `json:"cycle"`
	Children    []Snapshot `json:"children,omitempty"`
}

// Snapshot captures n and its descendants.
func (n *node) Snapshot() Snapshot {
	s := Snapshot{
		Name:        n.name,
		Status:      n.status,
		Rate:        n.rate,
		CycleCount:  n.cycleCount,
		AutoReverse: n.autoReverse,
		Current:     n.pos,
		Elapsed:     n.elapsed,
		Cycle:       n.cycleTicks(),
	}
	switch n.self.(type) {
	case *Transition:
		s.Kind = "transition"
	case *Sequential:
		s.Kind = "sequential"
	case *Parallel:
		s.Kind = "parallel"
	}
	for _, ch := range n.children() {
		s.Children = append(s.Children, ch.Snapshot())
	}
	return s
}

// Write prints the tree one node per line, children indented.
func (s Snapshot) Write(w io.Writer) error {
	return s.write(w, 0)
}

func (s Snapshot) write(w io.Writer, depth int) error {
	name := s.Name
	if name == "" {
		name = "-"
	}
	_, err := fmt.Fprintf(w, "%s%s %s %s %d/%d\n",
		strings.Repeat("  ", depth), name, s.Kind, s.Status, int64(s.Current), int64(s.Cycle))
	if err != nil {
		return err
	}
	for _, ch := range s.Children {
		if err := ch.write(w, depth+1); err != nil {
			return err
		}
	}
	return nil
}
