package model

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// TraversalStep visits Link, reached from ParentLink through ParentJoint.
// Both parent indices are InvalidIndex for the base.
type TraversalStep struct {
	Link        int
	ParentLink  int
	ParentJoint int
}

// Traversal is a parent-before-child visiting order of the link tree.
type Traversal struct {
	steps []TraversalStep
}

func (t *Traversal) Len() int {
	return len(t.steps)
}

func (t *Traversal) Step(i int) TraversalStep {
	return t.steps[i]
}

func (t *Traversal) BaseLink() int {
	if len(t.steps) == 0 {
		return InvalidIndex
	}
	return t.steps[0].Link
}

// Links lists the visited links in order.
func (t *Traversal) Links() []int {
	out := make([]int, len(t.steps))
	for i, s := range t.steps {
		out[i] = s.Link
	}
	return out
}

// ComputeTraversal runs a breadth first visit from base. Joints connect their
// links in both directions, so any link may serve as the base. Every link must
// be reachable.
func (m *Model) ComputeTraversal(base int) (*Traversal, error) {
	if base < 0 || base >= len(m.Links) {
		return nil, errors.Errorf("base link index %d out of range", base)
	}

	adjacent := make([][]int, len(m.Links))
	for ji := range m.Joints {
		j := &m.Joints[ji]
		adjacent[j.Parent] = append(adjacent[j.Parent], ji)
		adjacent[j.Child] = append(adjacent[j.Child], ji)
	}

	visited := make([]bool, len(m.Links))
	t := &Traversal{steps: make([]TraversalStep, 0, len(m.Links))}
	t.steps = append(t.steps, TraversalStep{Link: base, ParentLink: InvalidIndex, ParentJoint: InvalidIndex})
	visited[base] = true

	for i := 0; i < len(t.steps); i++ {
		current := t.steps[i].Link
		for _, ji := range adjacent[current] {
			j := &m.Joints[ji]
			next := j.Child
			if next == current {
				next = j.Parent
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			t.steps = append(t.steps, TraversalStep{Link: next, ParentLink: current, ParentJoint: ji})
		}
	}

	if len(t.steps) != len(m.Links) {
		for li, ok := range visited {
			if !ok {
				return nil, errors.Errorf("link %q is not connected to base %q", m.Links[li].Name, m.Links[base].Name)
			}
		}
	}
	return t, nil
}

// LinkPositions holds one world transform per link, indexed by link.
type LinkPositions []mgl64.Mat4

func NewLinkPositions(m *Model) LinkPositions {
	lp := make(LinkPositions, m.LinkCount())
	for i := range lp {
		lp[i] = mgl64.Ident4()
	}
	return lp
}

func (lp *LinkPositions) Resize(m *Model) {
	if len(*lp) == m.LinkCount() {
		return
	}
	*lp = NewLinkPositions(m)
}
