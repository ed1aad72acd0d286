package viewer

import (
	"sort"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/robot_viewer/geometry"
	"github.com/mogaika/robot_viewer/utils"
)

type Node struct {
	Path      string
	Object    *geometry.Object
	Transform mgl64.Mat4
}

// World is the node matrix including the object's own intrinsic matrix.
func (n *Node) World() mgl64.Mat4 {
	if n.Object == nil {
		return n.Transform
	}
	return n.Transform.Mul4(n.Object.Matrix)
}

type Stats struct {
	Objects    int
	Transforms int
}

// Scene is a headless Viewer keeping the latest object and transform of
// every path.
type Scene struct {
	lock  sync.Mutex
	nodes map[string]*Node
	order []string
	stats Stats
}

var _ Viewer = (*Scene)(nil)

func NewScene() *Scene {
	return &Scene{nodes: make(map[string]*Node)}
}

func validPath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return errors.Errorf("invalid scene path %q", path)
	}
	return nil
}

func (s *Scene) node(path string) *Node {
	n, ok := s.nodes[path]
	if !ok {
		n = &Node{Path: path, Transform: mgl64.Ident4()}
		s.nodes[path] = n
		s.order = append(s.order, path)
	}
	return n
}

func (s *Scene) SetObject(path string, obj *geometry.Object) error {
	if err := validPath(path); err != nil {
		return err
	}
	if obj == nil || obj.Geometry == nil {
		return errors.Errorf("object for %q has no geometry", path)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.node(path).Object = obj
	s.stats.Objects++
	return nil
}

func (s *Scene) SetTransform(path string, m mgl64.Mat4) error {
	if err := validPath(path); err != nil {
		return err
	}
	if !utils.IsHomogeneous(m) {
		return errors.Errorf("transform for %q is not homogeneous: bottom row %v", path, m.Row(3))
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.node(path).Transform = m
	s.stats.Transforms++
	return nil
}

// Apply executes a command as received from the wire.
func (s *Scene) Apply(cmd Command) error {
	switch cmd.Type {
	case CmdSetObject:
		return s.SetObject(cmd.Path, cmd.Object)
	case CmdSetTransform:
		if cmd.Matrix == nil {
			return errors.Errorf("set_transform for %q without matrix", cmd.Path)
		}
		return s.SetTransform(cmd.Path, *cmd.Matrix)
	default:
		return errors.Errorf("unknown command %q", cmd.Type)
	}
}

func (s *Scene) Open() error {
	return nil
}

func (s *Scene) EmbedSnippet() string {
	return ""
}

// Node returns a copy of the node at path.
func (s *Scene) Node(path string) (Node, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	n, ok := s.nodes[path]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// WorldTransform composes the transforms of path and all of its ancestors.
func (s *Scene) WorldTransform(path string) mgl64.Mat4 {
	s.lock.Lock()
	defer s.lock.Unlock()

	world := mgl64.Ident4()
	parts := strings.Split(path, "/")
	for i := range parts {
		if n, ok := s.nodes[strings.Join(parts[:i+1], "/")]; ok {
			world = world.Mul4(n.Transform)
		}
	}
	return world
}

// Paths lists every node path in creation order.
func (s *Scene) Paths() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string{}, s.order...)
}

// Stats counts the accepted commands of each kind.
func (s *Scene) Stats() Stats {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.stats
}

// Snapshot lists the commands rebuilding the current scene from scratch,
// objects before transforms, in creation order.
func (s *Scene) Snapshot() []Command {
	s.lock.Lock()
	defer s.lock.Unlock()

	cmds := make([]Command, 0, 2*len(s.order))
	for _, path := range s.order {
		n := s.nodes[path]
		if n.Object != nil {
			cmds = append(cmds, SetObjectCommand(path, n.Object))
		}
		cmds = append(cmds, SetTransformCommand(path, n.Transform))
	}
	return cmds
}

// TreeNode is one path segment of the scene.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Geometry string      `json:"geometry,omitempty"`
	Matrix   *mgl64.Mat4 `json:"matrix,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Tree groups the nodes by path segment, children sorted by name.
func (s *Scene) Tree() *TreeNode {
	s.lock.Lock()
	defer s.lock.Unlock()

	root := &TreeNode{}
	index := map[string]*TreeNode{"": root}
	for _, path := range s.order {
		parts := strings.Split(path, "/")
		parent := root
		for i := range parts {
			sub := strings.Join(parts[:i+1], "/")
			tn, ok := index[sub]
			if !ok {
				tn = &TreeNode{Name: parts[i], Path: sub}
				index[sub] = tn
				parent.Children = append(parent.Children, tn)
			}
			parent = tn
		}

		n := s.nodes[path]
		m := n.Transform
		parent.Matrix = &m
		if n.Object != nil {
			parent.Geometry = n.Object.Geometry.Type
		}
	}

	for _, tn := range index {
		sort.Slice(tn.Children, func(i, j int) bool {
			return tn.Children[i].Name < tn.Children[j].Name
		})
	}
	return root
}
