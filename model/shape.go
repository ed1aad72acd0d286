package model

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind tags the active payload of a SolidShape.
type ShapeKind int

const (
	ShapeUnknown ShapeKind = iota
	ShapeMesh
	ShapeSphere
	ShapeBox
	ShapeCylinder
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeMesh:
		return "mesh"
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// ExternalMesh references a mesh file. Filename is kept as written in the
// model description; LocalPath resolves it.
type ExternalMesh struct {
	Filename    string
	PackageDirs []string
	Scale       mgl64.Vec3
}

type Sphere struct {
	Radius float64
}

type Box struct {
	X, Y, Z float64
}

// Cylinder length runs along the shape's own z axis.
type Cylinder struct {
	Length float64
	Radius float64
}

// SolidShape is a visual or collision geometry attached to a link.
// Only the payload matching Kind is meaningful.
type SolidShape struct {
	Kind          ShapeKind
	Name          string
	LinkHGeometry mgl64.Mat4
	Color         mgl64.Vec4

	Mesh     ExternalMesh
	Sphere   Sphere
	Box      Box
	Cylinder Cylinder
}

func newShape(kind ShapeKind) SolidShape {
	return SolidShape{
		Kind:          kind,
		LinkHGeometry: mgl64.Ident4(),
		Color:         mgl64.Vec4{1, 1, 1, 1},
	}
}

func NewSphere(radius float64) SolidShape {
	s := newShape(ShapeSphere)
	s.Sphere.Radius = radius
	return s
}

func NewBox(x, y, z float64) SolidShape {
	s := newShape(ShapeBox)
	s.Box = Box{X: x, Y: y, Z: z}
	return s
}

func NewCylinder(radius, length float64) SolidShape {
	s := newShape(ShapeCylinder)
	s.Cylinder = Cylinder{Length: length, Radius: radius}
	return s
}

func NewExternalMesh(filename string, scale mgl64.Vec3) SolidShape {
	s := newShape(ShapeMesh)
	s.Mesh = ExternalMesh{Filename: filename, Scale: scale}
	return s
}

func (s *SolidShape) IsExternalMesh() bool {
	return s.Kind == ShapeMesh
}

// LocalPath returns the mesh location on the local file system, or "" when the
// file cannot be found. Supported forms: plain paths, file:// URIs and
// package://<pkg>/<rest> resolved against PackageDirs then ROS_PACKAGE_PATH.
func (m *ExternalMesh) LocalPath() string {
	name := m.Filename
	if name == "" {
		return ""
	}

	var candidates []string
	switch {
	case strings.HasPrefix(name, "file://"):
		candidates = append(candidates, strings.TrimPrefix(name, "file://"))
	case strings.HasPrefix(name, "package://"):
		rest := strings.TrimPrefix(name, "package://")
		dirs := append([]string{}, m.PackageDirs...)
		if env := os.Getenv("ROS_PACKAGE_PATH"); env != "" {
			dirs = append(dirs, filepath.SplitList(env)...)
		}
		for _, dir := range dirs {
			// a package dir may either contain the package or be the package itself
			candidates = append(candidates, filepath.Join(dir, rest))
			if i := strings.IndexByte(rest, '/'); i >= 0 && filepath.Base(dir) == rest[:i] {
				candidates = append(candidates, filepath.Join(dir, rest[i+1:]))
			}
		}
	default:
		candidates = append(candidates, name)
	}

	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			if abs, err := filepath.Abs(c); err == nil {
				return abs
			}
			return c
		}
	}
	return ""
}

// Basename is the file name without directory and extension.
func (m *ExternalMesh) Basename() string {
	base := filepath.Base(m.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ModelSolidShapes holds the shapes of every link, indexed by link.
type ModelSolidShapes struct {
	LinkSolidShapes [][]SolidShape
}

func (ms *ModelSolidShapes) Resize(linkCount int) {
	for len(ms.LinkSolidShapes) < linkCount {
		ms.LinkSolidShapes = append(ms.LinkSolidShapes, []SolidShape{})
	}
	ms.LinkSolidShapes = ms.LinkSolidShapes[:linkCount]
}

func (ms *ModelSolidShapes) Count() int {
	n := 0
	for _, shapes := range ms.LinkSolidShapes {
		n += len(shapes)
	}
	return n
}
