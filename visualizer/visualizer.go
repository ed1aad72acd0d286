// Package visualizer places robot models and free standing markers in a
// viewer and keeps their transforms in sync with the robot state.
package visualizer

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/robot_viewer/geometry"
	"github.com/mogaika/robot_viewer/kinematics"
	"github.com/mogaika/robot_viewer/model"
	"github.com/mogaika/robot_viewer/model/urdf"
	"github.com/mogaika/robot_viewer/placement"
	"github.com/mogaika/robot_viewer/registry"
	"github.com/mogaika/robot_viewer/utils"
	"github.com/mogaika/robot_viewer/viewer"
)

var ErrLoadFailure = errors.New("model load failure")

// ModelLoader reads a model description from disk. A non empty consideredJoints
// reduces the model to those joints.
type ModelLoader interface {
	LoadModel(path string, consideredJoints []string) (*model.Model, error)
}

// URDFLoader loads URDF files.
type URDFLoader struct {
	Options urdf.Options
}

func (l URDFLoader) LoadModel(path string, consideredJoints []string) (*model.Model, error) {
	if len(consideredJoints) == 0 {
		return urdf.LoadModelFromFile(path, l.Options)
	}
	return urdf.LoadReducedModelFromFile(path, consideredJoints, l.Options)
}

type Option func(*Visualizer)

func WithLogger(log *zap.Logger) Option {
	return func(v *Visualizer) {
		if log != nil {
			v.log = log
		}
	}
}

func WithModelLoader(l ModelLoader) Option {
	return func(v *Visualizer) {
		if l != nil {
			v.loader = l
		}
	}
}

// WithResolver replaces the geometry resolver, to plug custom mesh loaders.
func WithResolver(r *geometry.Resolver) Option {
	return func(v *Visualizer) {
		if r != nil {
			v.resolver = r
		}
	}
}

// Visualizer owns the names loaded into one viewer. Calls are synchronous and
// every viewer push completes before the next one is issued.
type Visualizer struct {
	viewer   viewer.Viewer
	log      *zap.Logger
	registry *registry.Registry
	resolver *geometry.Resolver
	loader   ModelLoader
}

func New(v viewer.Viewer, opts ...Option) *Visualizer {
	vis := &Visualizer{
		viewer:   v,
		log:      zap.L(),
		registry: registry.New(),
		resolver: geometry.NewResolver(),
		loader:   URDFLoader{},
	}
	for _, opt := range opts {
		opt(vis)
	}
	vis.log = vis.log.Named("visualizer")
	return vis
}

func (vis *Visualizer) Registry() *registry.Registry {
	return vis.registry
}

func (vis *Visualizer) warn(msg string, name string, err error, fields ...zap.Field) error {
	vis.log.Warn(msg, append([]zap.Field{zap.String("name", name), zap.Error(err)}, fields...)...)
	return err
}

// LoadModelFromFile loads a model description and adds it to the scene.
func (vis *Visualizer) LoadModelFromFile(path string, consideredJoints []string, name string, color geometry.ColorOverride) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	m, err := vis.loader.LoadModel(path, consideredJoints)
	if err == nil && m == nil {
		err = errors.New("loader returned no model")
	}
	if err != nil {
		return vis.warn("Failed to load model", name,
			errors.Wrapf(ErrLoadFailure, "%s: %v", path, err), zap.String("path", path))
	}
	return vis.LoadModel(m, name, color)
}

// LoadModel registers m under name and places every visual shape at the rest
// pose. Shapes that cannot be resolved are logged and skipped.
func (vis *Visualizer) LoadModel(m *model.Model, name string, color geometry.ColorOverride) error {
	entry, err := vis.registry.RegisterModel(name, m)
	if err != nil {
		return vis.warn("Failed to register model", name, err)
	}

	// nodes already in the viewer stay tracked when a push fails midway
	var nodes []registry.VisualNode
	defer func() {
		vis.registry.SetNodes(name, nodes)
	}()

	rest := make([]float64, entry.Model.DofCount())
	if err := kinematics.ForwardPositionKinematics(entry.Model, entry.Traversal,
		mgl64.Ident4(), rest, entry.LinkPositions); err != nil {
		return vis.warn("Failed to solve rest pose", name, err)
	}

	used := make(map[string]struct{})
	visual := entry.Model.VisualShapes()
	for link, shapes := range visual.LinkSolidShapes {
		linkName := entry.Model.LinkName(link)
		for i := range shapes {
			shape := &shapes[i]
			g, isMesh, err := vis.resolver.Resolve(shape)
			if err != nil {
				vis.warn("Skipping visual shape", name, err,
					zap.String("link", linkName), zap.Int("shape", i))
				continue
			}

			path := nodePath(name, linkName, shape, i, isMesh)
			if _, ok := used[path]; ok {
				path = fmt.Sprintf("%s_%d", path, i)
			}

			obj := geometry.NewObject(g, geometry.NewMaterial(color.Apply(shape.Color)))
			if err := vis.viewer.SetObject(path, obj); err != nil {
				return vis.warn("Failed to set object", name, err, zap.String("path", path))
			}
			used[path] = struct{}{}
			nodes = append(nodes, registry.VisualNode{Path: path, Link: link, Shape: i, IsMesh: isMesh})

			worldHGeometry := placement.ComputeTransform(entry.LinkPositions[link], shape, isMesh)
			if err := vis.viewer.SetTransform(path, worldHGeometry); err != nil {
				return vis.warn("Failed to set transform", name, err, zap.String("path", path))
			}
		}
	}

	vis.log.Info("Model loaded", zap.String("name", name),
		zap.Int("links", entry.Model.LinkCount()), zap.Int("dofs", entry.Model.DofCount()),
		zap.Int("nodes", len(nodes)))
	return nil
}

func nodePath(name, link string, shape *model.SolidShape, index int, isMesh bool) string {
	if isMesh {
		return name + "/" + link + "/" + shape.Mesh.Basename()
	}
	return fmt.Sprintf("%s/%s/geometry%d", name, link, index)
}

// SetMultibodySystemState moves a loaded model. Only transforms are pushed.
func (vis *Visualizer) SetMultibodySystemState(basePosition mgl64.Vec3, baseRotation mgl64.Mat3,
	jointValues []float64, name string) error {

	entry, err := vis.registry.Model(name)
	if err != nil {
		return vis.warn("Cannot update model state", name, err)
	}
	if len(jointValues) != entry.Model.DofCount() {
		err := errors.Wrapf(kinematics.ErrSizeMismatch, "model %q expects %d joint values, got %d",
			name, entry.Model.DofCount(), len(jointValues))
		return vis.warn("Cannot update model state", name, err)
	}

	worldHBase := utils.Homogeneous(baseRotation, basePosition)
	if err := kinematics.ForwardPositionKinematics(entry.Model, entry.Traversal,
		worldHBase, jointValues, entry.LinkPositions); err != nil {
		return vis.warn("Cannot update model state", name, err)
	}

	visual := entry.Model.VisualShapes()
	for _, n := range entry.Nodes {
		shape := &visual.LinkSolidShapes[n.Link][n.Shape]
		m := placement.ComputeTransform(entry.LinkPositions[n.Link], shape, n.IsMesh)
		if err := vis.viewer.SetTransform(n.Path, m); err != nil {
			return vis.warn("Failed to set transform", name, err, zap.String("path", n.Path))
		}
	}
	return nil
}

// LoadPrimitiveGeometry adds a free standing sphere, box or cylinder. Its
// transform stays at identity until SetPrimitiveGeometryTransform.
func (vis *Visualizer) LoadPrimitiveGeometry(shape model.SolidShape, name string, color geometry.ColorOverride) error {
	if vis.registry.Exists(name) || vis.registry.PrimitiveExists(name) {
		return vis.warn("Cannot load primitive", name, errors.Wrapf(registry.ErrNameCollision, "shape %q", name))
	}
	if shape.IsExternalMesh() {
		return vis.warn("Cannot load primitive", name,
			errors.Wrapf(geometry.ErrUnsupportedGeometry, "mesh %q is not a primitive", shape.Mesh.Filename))
	}

	g, _, err := vis.resolver.Resolve(&shape)
	if err != nil {
		return vis.warn("Cannot load primitive", name, err)
	}
	obj := geometry.NewObject(g, geometry.NewMaterial(color.Apply(shape.Color)))
	if err := vis.viewer.SetObject(name, obj); err != nil {
		return vis.warn("Failed to set object", name, err)
	}
	if err := vis.registry.RegisterPrimitive(name); err != nil {
		return vis.warn("Cannot load primitive", name, err)
	}
	return nil
}

func (vis *Visualizer) LoadSphere(radius float64, name string, color geometry.ColorOverride) error {
	return vis.LoadPrimitiveGeometry(model.NewSphere(radius), name, color)
}

func (vis *Visualizer) LoadBox(x, y, z float64, name string, color geometry.ColorOverride) error {
	return vis.LoadPrimitiveGeometry(model.NewBox(x, y, z), name, color)
}

func (vis *Visualizer) LoadCylinder(radius, length float64, name string, color geometry.ColorOverride) error {
	return vis.LoadPrimitiveGeometry(model.NewCylinder(radius, length), name, color)
}

// LoadArrow adds a unit length cylinder that SetArrowTransform stretches.
func (vis *Visualizer) LoadArrow(radius float64, name string, color geometry.ColorOverride) error {
	if err := vis.LoadCylinder(radius, 1, name, color); err != nil {
		return err
	}
	if err := vis.registry.RegisterArrow(name); err != nil {
		return vis.warn("Cannot load arrow", name, err)
	}
	return nil
}

func (vis *Visualizer) SetPrimitiveGeometryTransform(position mgl64.Vec3, rotation mgl64.Mat3, name string) error {
	if !vis.registry.PrimitiveExists(name) {
		return vis.warn("Cannot set primitive transform", name,
			errors.Wrapf(registry.ErrUnknownName, "shape %q", name))
	}
	if err := vis.viewer.SetTransform(name, placement.PoseTransform(position, rotation)); err != nil {
		return vis.warn("Failed to set transform", name, err)
	}
	return nil
}

// SetArrowTransform makes the arrow span from origin to origin+vector.
func (vis *Visualizer) SetArrowTransform(origin, vector mgl64.Vec3, name string) error {
	if !vis.registry.ArrowExists(name) {
		return vis.warn("Cannot set arrow transform", name,
			errors.Wrapf(registry.ErrUnknownName, "arrow %q", name))
	}
	if err := vis.viewer.SetTransform(name, placement.ArrowTransform(origin, vector)); err != nil {
		return vis.warn("Failed to set transform", name, err)
	}
	return nil
}

func (vis *Visualizer) Open() error {
	if err := vis.viewer.Open(); err != nil {
		return vis.warn("Failed to open viewer", "", err)
	}
	return nil
}

// JupyterCell is an html snippet embedding the viewer in a notebook cell.
func (vis *Visualizer) JupyterCell() string {
	return vis.viewer.EmbedSnippet()
}
