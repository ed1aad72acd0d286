// Package model describes articulated rigid-body models: links connected by
// joints into a tree, with solid shapes attached to the links.
package model

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

const InvalidIndex = -1

type JointType int

const (
	JointFixed JointType = iota
	JointRevolute
	JointContinuous
	JointPrismatic
)

func (t JointType) String() string {
	switch t {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	case JointContinuous:
		return "continuous"
	case JointPrismatic:
		return "prismatic"
	default:
		return "unknown"
	}
}

// Dofs is the number of position coordinates the joint contributes.
func (t JointType) Dofs() int {
	if t == JointFixed {
		return 0
	}
	return 1
}

type Link struct {
	Name string
}

// Joint connects Parent to Child. ParentHChild is the transform at zero joint
// position; Axis is expressed in the child frame.
type Joint struct {
	Name         string
	Type         JointType
	Parent       int
	Child        int
	ParentHChild mgl64.Mat4
	Axis         mgl64.Vec3
	// position of the joint coordinate in the joint vector, InvalidIndex if fixed
	DofOffset int
}

type Model struct {
	Links           []Link
	Joints          []Joint
	Visual          ModelSolidShapes
	Collision       ModelSolidShapes
	DefaultBaseLink int
	PackageDirs     []string
}

func New() *Model {
	return &Model{DefaultBaseLink: InvalidIndex}
}

func (m *Model) LinkCount() int {
	return len(m.Links)
}

func (m *Model) JointCount() int {
	return len(m.Joints)
}

func (m *Model) DofCount() int {
	n := 0
	for i := range m.Joints {
		n += m.Joints[i].Type.Dofs()
	}
	return n
}

func (m *Model) LinkName(i int) string {
	if i < 0 || i >= len(m.Links) {
		return ""
	}
	return m.Links[i].Name
}

func (m *Model) LinkIndex(name string) int {
	for i := range m.Links {
		if m.Links[i].Name == name {
			return i
		}
	}
	return InvalidIndex
}

func (m *Model) JointIndex(name string) int {
	for i := range m.Joints {
		if m.Joints[i].Name == name {
			return i
		}
	}
	return InvalidIndex
}

func (m *Model) VisualShapes() *ModelSolidShapes {
	return &m.Visual
}

func (m *Model) CollisionShapes() *ModelSolidShapes {
	return &m.Collision
}

// AddLink appends a link. The first link added becomes the default base.
func (m *Model) AddLink(name string) (int, error) {
	if name == "" {
		return InvalidIndex, errors.New("link name is empty")
	}
	if m.LinkIndex(name) != InvalidIndex {
		return InvalidIndex, errors.Errorf("link %q already exists", name)
	}
	m.Links = append(m.Links, Link{Name: name})
	m.Visual.Resize(len(m.Links))
	m.Collision.Resize(len(m.Links))
	if m.DefaultBaseLink == InvalidIndex {
		m.DefaultBaseLink = len(m.Links) - 1
	}
	return len(m.Links) - 1, nil
}

// AddJoint appends a joint and gives it the next free dof offset. A link can
// have at most one parent joint.
func (m *Model) AddJoint(j Joint) (int, error) {
	if j.Name == "" {
		return InvalidIndex, errors.New("joint name is empty")
	}
	if m.JointIndex(j.Name) != InvalidIndex {
		return InvalidIndex, errors.Errorf("joint %q already exists", j.Name)
	}
	if j.Parent < 0 || j.Parent >= len(m.Links) || j.Child < 0 || j.Child >= len(m.Links) {
		return InvalidIndex, errors.Errorf("joint %q references unknown link", j.Name)
	}
	if j.Parent == j.Child {
		return InvalidIndex, errors.Errorf("joint %q connects link %q to itself", j.Name, m.Links[j.Child].Name)
	}
	for i := range m.Joints {
		if m.Joints[i].Child == j.Child {
			return InvalidIndex, errors.Errorf("link %q already has parent joint %q", m.Links[j.Child].Name, m.Joints[i].Name)
		}
	}
	if j.Type != JointFixed {
		if j.Axis.Len() == 0 {
			return InvalidIndex, errors.Errorf("joint %q has a zero axis", j.Name)
		}
		j.DofOffset = m.DofCount()
	} else {
		j.DofOffset = InvalidIndex
	}
	m.Joints = append(m.Joints, j)
	return len(m.Joints) - 1, nil
}

func (m *Model) AddVisualShape(link int, s SolidShape) error {
	if link < 0 || link >= len(m.Links) {
		return errors.Errorf("link index %d out of range", link)
	}
	m.Visual.LinkSolidShapes[link] = append(m.Visual.LinkSolidShapes[link], s)
	return nil
}

func (m *Model) AddCollisionShape(link int, s SolidShape) error {
	if link < 0 || link >= len(m.Links) {
		return errors.Errorf("link index %d out of range", link)
	}
	m.Collision.LinkSolidShapes[link] = append(m.Collision.LinkSolidShapes[link], s)
	return nil
}

// SetDofOrder renumbers the joint coordinates so that the i-th name owns
// coordinate i. Every non-fixed joint must be listed exactly once.
func (m *Model) SetDofOrder(names []string) error {
	if len(names) != m.DofCount() {
		return errors.Errorf("dof order lists %d joints, model has %d dofs", len(names), m.DofCount())
	}
	seen := make(map[int]struct{}, len(names))
	for _, name := range names {
		ji := m.JointIndex(name)
		if ji == InvalidIndex {
			return errors.Errorf("joint %q not found", name)
		}
		if m.Joints[ji].Type == JointFixed {
			return errors.Errorf("joint %q is fixed", name)
		}
		if _, ok := seen[ji]; ok {
			return errors.Errorf("joint %q listed twice", name)
		}
		seen[ji] = struct{}{}
	}
	for offset, name := range names {
		m.Joints[m.JointIndex(name)].DofOffset = offset
	}
	return nil
}

// Copy returns a deep copy sharing no memory with m.
func (m *Model) Copy() *Model {
	out := New()
	if err := copier.CopyWithOption(out, m, copier.Option{DeepCopy: true}); err != nil {
		// only reachable with unsupported field types
		panic(errors.Wrap(err, "model copy"))
	}
	// copier turns nil slices into empty ones
	if m.PackageDirs == nil {
		out.PackageDirs = nil
	}
	restoreNilPackageDirs(&out.Visual, &m.Visual)
	restoreNilPackageDirs(&out.Collision, &m.Collision)
	return out
}

func restoreNilPackageDirs(dst, src *ModelSolidShapes) {
	for l, shapes := range src.LinkSolidShapes {
		for i := range shapes {
			if shapes[i].Mesh.PackageDirs == nil {
				dst.LinkSolidShapes[l][i].Mesh.PackageDirs = nil
			}
		}
	}
}

// ComputeFullTreeTraversal visits the whole tree from the default base link.
func (m *Model) ComputeFullTreeTraversal() (*Traversal, error) {
	return m.ComputeTraversal(m.DefaultBaseLink)
}
