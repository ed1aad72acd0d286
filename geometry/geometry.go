// Package geometry turns model solid shapes into viewer objects: a geometry
// description the browser renderer understands plus a material.
package geometry

import (
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/robot_viewer/model"
)

const (
	TypeSphere   = "SphereGeometry"
	TypeBox      = "BoxGeometry"
	TypeCylinder = "CylinderGeometry"
	TypeMeshFile = "_meshfile_geometry"
)

var ErrUnsupportedGeometry = errors.New("unsupported geometry")

// cylinderIntrinsic is a +90 degree rotation about x. Renderer cylinders grow
// along their local y axis, model cylinders along z.
var cylinderIntrinsic = mgl64.Mat4{
	1, 0, 0, 0,
	0, 0, 1, 0,
	0, -1, 0, 0,
	0, 0, 0, 1,
}

// Geometry is a renderer-native geometry. Box uses Width/Height/Depth for
// x/y/z, cylinder uses Height for its length, mesh files carry raw Data.
type Geometry struct {
	Type           string  `json:"type"`
	Radius         float64 `json:"radius,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
	Depth          float64 `json:"depth,omitempty"`
	RadiusTop      float64 `json:"radiusTop,omitempty"`
	RadiusBottom   float64 `json:"radiusBottom,omitempty"`
	RadialSegments int     `json:"radialSegments,omitempty"`
	Format         string  `json:"format,omitempty"`
	Data           []byte  `json:"data,omitempty"`

	// Source is the local file a mesh was read from.
	Source string `json:"-"`
	// Intrinsic is composed before any placement transform of the node.
	Intrinsic mgl64.Mat4 `json:"-"`
}

// IntrinsicTransform returns the fixed correction applied to a shape kind
// before its placement.
func IntrinsicTransform(kind model.ShapeKind) mgl64.Mat4 {
	if kind == model.ShapeCylinder {
		return cylinderIntrinsic
	}
	return mgl64.Ident4()
}

func NewSphere(radius float64) *Geometry {
	return &Geometry{Type: TypeSphere, Radius: radius, Intrinsic: mgl64.Ident4()}
}

func NewBox(x, y, z float64) *Geometry {
	return &Geometry{Type: TypeBox, Width: x, Height: y, Depth: z, Intrinsic: mgl64.Ident4()}
}

func NewCylinder(length, radius float64) *Geometry {
	return &Geometry{
		Type:           TypeCylinder,
		Height:         length,
		RadiusTop:      radius,
		RadiusBottom:   radius,
		RadialSegments: 50,
		Intrinsic:      IntrinsicTransform(model.ShapeCylinder),
	}
}

func NewMeshFile(format string, data []byte, source string) *Geometry {
	return &Geometry{Type: TypeMeshFile, Format: format, Data: data, Source: source, Intrinsic: mgl64.Ident4()}
}

// IsMesh reports whether the geometry came from a mesh file.
func (g *Geometry) IsMesh() bool {
	return g.Type == TypeMeshFile
}

// Matrix is the node-local matrix sent with the object.
func (g *Geometry) Matrix() mgl64.Mat4 {
	if g.Intrinsic == (mgl64.Mat4{}) {
		return mgl64.Ident4()
	}
	return g.Intrinsic
}

var meshExtensions = map[string]struct{}{
	".dae": {},
	".obj": {},
	".stl": {},
}

// Resolver builds geometries from solid shapes, dispatching mesh files to
// loaders by extension.
type Resolver struct {
	loaders map[string]MeshLoader
}

func NewResolver() *Resolver {
	return &Resolver{loaders: map[string]MeshLoader{
		".dae": ColladaLoader{},
		".obj": ObjLoader{},
		".stl": StlLoader{},
	}}
}

// SetLoader replaces the loader for a lower case extension like ".stl".
// A nil loader removes it.
func (r *Resolver) SetLoader(ext string, l MeshLoader) {
	ext = strings.ToLower(ext)
	if l == nil {
		delete(r.loaders, ext)
	} else {
		r.loaders[ext] = l
	}
}

// IsMesh reports whether the shape references an existing mesh file of a
// supported format.
func IsMesh(shape *model.SolidShape) bool {
	if !shape.IsExternalMesh() {
		return false
	}
	path := shape.Mesh.LocalPath()
	if path == "" {
		return false
	}
	_, ok := meshExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Resolve builds the geometry of shape. The bool result tells whether the
// geometry is a mesh, which is placed with the mesh scale applied.
// Shapes that cannot be rendered return ErrUnsupportedGeometry.
func (r *Resolver) Resolve(shape *model.SolidShape) (*Geometry, bool, error) {
	if IsMesh(shape) {
		g, err := r.loadMesh(shape)
		return g, true, err
	}

	switch shape.Kind {
	case model.ShapeSphere:
		return NewSphere(shape.Sphere.Radius), false, nil
	case model.ShapeBox:
		return NewBox(shape.Box.X, shape.Box.Y, shape.Box.Z), false, nil
	case model.ShapeCylinder:
		return NewCylinder(shape.Cylinder.Length, shape.Cylinder.Radius), false, nil
	case model.ShapeMesh:
		return nil, false, errors.Wrapf(ErrUnsupportedGeometry, "mesh %q is missing or has an unsupported format", shape.Mesh.Filename)
	default:
		return nil, false, errors.Wrapf(ErrUnsupportedGeometry, "shape kind %v", shape.Kind)
	}
}

func (r *Resolver) loadMesh(shape *model.SolidShape) (*Geometry, error) {
	path := shape.Mesh.LocalPath()
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := r.loaders[ext]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedGeometry, "no loader for mesh %q", path)
	}
	g, err := loader.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading mesh %q", path)
	}
	return g, nil
}

// Object is a geometry together with its material, as set on a viewer node.
type Object struct {
	Geometry *Geometry  `json:"geometry"`
	Material Material   `json:"material"`
	Matrix   mgl64.Mat4 `json:"matrix"`
}

func NewObject(g *Geometry, m Material) *Object {
	return &Object{Geometry: g, Material: m, Matrix: g.Matrix()}
}
