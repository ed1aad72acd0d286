// Package registry keeps track of the names loaded into a scene: models with
// their kinematic state, and free standing primitives and arrows.
package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/robot_viewer/model"
	"github.com/mogaika/robot_viewer/utils"
)

var (
	ErrNameCollision = errors.New("name already in use")
	ErrUnknownName   = errors.New("unknown name")
)

// VisualNode is a viewer node placed for one visual shape of a model.
type VisualNode struct {
	Path   string
	Link   int
	Shape  int
	IsMesh bool
}

// ModelEntry is everything kept for a registered model. Model, Traversal and
// LinkPositions are created together and always agree on the link count.
type ModelEntry struct {
	Name          string
	Model         *model.Model
	Traversal     *model.Traversal
	LinkPositions model.LinkPositions
	Nodes         []VisualNode
}

type Registry struct {
	lock       sync.Mutex
	models     map[string]*ModelEntry
	primitives map[string]struct{}
	arrows     map[string]struct{}
}

func New() *Registry {
	return &Registry{
		models:     make(map[string]*ModelEntry),
		primitives: make(map[string]struct{}),
		arrows:     make(map[string]struct{}),
	}
}

// Exists reports whether name is a registered model.
func (r *Registry) Exists(name string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, ok := r.models[name]
	return ok
}

func (r *Registry) PrimitiveExists(name string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, ok := r.primitives[name]
	return ok
}

func (r *Registry) ArrowExists(name string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, ok := r.arrows[name]
	return ok
}

func (r *Registry) used(name string) bool {
	_, isModel := r.models[name]
	_, isPrimitive := r.primitives[name]
	return isModel || isPrimitive
}

// RegisterModel stores a deep copy of m under name together with its full tree
// traversal and a pose buffer sized to its links.
func (r *Registry) RegisterModel(name string, m *model.Model) (*ModelEntry, error) {
	if name == "" {
		return nil, errors.New("model name is empty")
	}
	if m == nil {
		return nil, errors.Errorf("model %q is nil", name)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.used(name) {
		return nil, errors.Wrapf(ErrNameCollision, "model %q", name)
	}

	copied := m.Copy()
	traversal, err := copied.ComputeFullTreeTraversal()
	if err != nil {
		return nil, errors.Wrapf(err, "model %q traversal", name)
	}

	entry := &ModelEntry{
		Name:          name,
		Model:         copied,
		Traversal:     traversal,
		LinkPositions: model.NewLinkPositions(copied),
	}
	r.models[name] = entry
	return entry, nil
}

// RegisterPrimitive claims name for a free standing shape.
func (r *Registry) RegisterPrimitive(name string) error {
	if name == "" {
		return errors.New("shape name is empty")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.used(name) {
		return errors.Wrapf(ErrNameCollision, "shape %q", name)
	}
	r.primitives[name] = struct{}{}
	return nil
}

// RegisterArrow marks an already registered primitive as an arrow.
func (r *Registry) RegisterArrow(name string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.primitives[name]; !ok {
		return errors.Wrapf(ErrUnknownName, "arrow %q is not a registered shape", name)
	}
	if _, ok := r.arrows[name]; ok {
		return errors.Wrapf(ErrNameCollision, "arrow %q", name)
	}
	r.arrows[name] = struct{}{}
	return nil
}

// Model returns the entry of a registered model.
func (r *Registry) Model(name string) (*ModelEntry, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	entry, ok := r.models[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownName, "model %q", name)
	}
	return entry, nil
}

// SetNodes records the viewer nodes placed for a model.
func (r *Registry) SetNodes(name string, nodes []VisualNode) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	entry, ok := r.models[name]
	if !ok {
		return errors.Wrapf(ErrUnknownName, "model %q", name)
	}
	entry.Nodes = nodes
	return nil
}

// Names lists every registered model and shape name, sorted.
func (r *Registry) Names() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	names := make([]string, 0, len(r.models)+len(r.primitives))
	for name := range r.models {
		names = append(names, name)
	}
	for name := range r.primitives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type dumpModel struct {
	Links     int
	Dofs      int
	Traversal []int
	Nodes     []VisualNode
}

type dump struct {
	Models     map[string]dumpModel
	Primitives map[string]struct{}
	Arrows     map[string]struct{}
}

// Dump describes the registry contents for debugging.
func (r *Registry) Dump() string {
	r.lock.Lock()
	defer r.lock.Unlock()

	d := dump{
		Models:     make(map[string]dumpModel, len(r.models)),
		Primitives: r.primitives,
		Arrows:     r.arrows,
	}
	for name, e := range r.models {
		d.Models[name] = dumpModel{
			Links:     e.Model.LinkCount(),
			Dofs:      e.Model.DofCount(),
			Traversal: e.Traversal.Links(),
			Nodes:     e.Nodes,
		}
	}
	return utils.SDump(d)
}
