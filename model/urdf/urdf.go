// Package urdf loads models from URDF robot descriptions.
package urdf

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/robot_viewer/model"
	"github.com/mogaika/robot_viewer/utils"
)

type Options struct {
	// PackageDirs are searched when resolving package:// mesh references.
	PackageDirs []string
}

type xmlRobot struct {
	XMLName   xml.Name      `xml:"robot"`
	Name      string        `xml:"name,attr"`
	Materials []xmlMaterial `xml:"material"`
	Links     []xmlLink     `xml:"link"`
	Joints    []xmlJoint    `xml:"joint"`
}

type xmlMaterial struct {
	Name  string `xml:"name,attr"`
	Color *struct {
		RGBA string `xml:"rgba,attr"`
	} `xml:"color"`
}

type xmlOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type xmlGeometry struct {
	Box *struct {
		Size string `xml:"size,attr"`
	} `xml:"box"`
	Sphere *struct {
		Radius string `xml:"radius,attr"`
	} `xml:"sphere"`
	Cylinder *struct {
		Radius string `xml:"radius,attr"`
		Length string `xml:"length,attr"`
	} `xml:"cylinder"`
	Mesh *struct {
		Filename string `xml:"filename,attr"`
		Scale    string `xml:"scale,attr"`
	} `xml:"mesh"`
}

type xmlShape struct {
	Name     string       `xml:"name,attr"`
	Origin   *xmlOrigin   `xml:"origin"`
	Geometry xmlGeometry  `xml:"geometry"`
	Material *xmlMaterial `xml:"material"`
}

type xmlLink struct {
	Name       string     `xml:"name,attr"`
	Visuals    []xmlShape `xml:"visual"`
	Collisions []xmlShape `xml:"collision"`
}

type xmlJoint struct {
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Origin *xmlOrigin `xml:"origin"`
	Parent struct {
		Link string `xml:"link,attr"`
	} `xml:"parent"`
	Child struct {
		Link string `xml:"link,attr"`
	} `xml:"child"`
	Axis *struct {
		XYZ string `xml:"xyz,attr"`
	} `xml:"axis"`
}

// LoadModelFromFile parses a URDF file. Relative mesh paths are taken
// relative to the file, and the directory containing the file's package is
// added to the package search dirs.
func LoadModelFromFile(path string, opts Options) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get absolute path of %q", path)
	}

	dir := filepath.Dir(abs)
	opts.PackageDirs = append(append([]string{}, opts.PackageDirs...), filepath.Dir(dir))
	m, err := parse(data, dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load %q", path)
	}
	return m, nil
}

// LoadModelFromString parses URDF text. Relative mesh paths are resolved
// against the working directory.
func LoadModelFromString(data string, opts Options) (*model.Model, error) {
	return parse([]byte(data), "", opts)
}

// LoadReducedModelFromFile loads a URDF keeping only consideredJoints movable.
// Every other joint is frozen at its zero position. Joint coordinates follow
// the order of consideredJoints.
func LoadReducedModelFromFile(path string, consideredJoints []string, opts Options) (*model.Model, error) {
	m, err := LoadModelFromFile(path, opts)
	if err != nil {
		return nil, err
	}
	if err := Reduce(m, consideredJoints); err != nil {
		return nil, errors.Wrapf(err, "Failed to reduce %q", path)
	}
	return m, nil
}

// Reduce freezes every joint of m not listed in consideredJoints.
func Reduce(m *model.Model, consideredJoints []string) error {
	keep := make(map[string]struct{}, len(consideredJoints))
	for _, name := range consideredJoints {
		ji := m.JointIndex(name)
		if ji == model.InvalidIndex {
			return errors.Errorf("considered joint %q not found", name)
		}
		if m.Joints[ji].Type == model.JointFixed {
			return errors.Errorf("considered joint %q is fixed", name)
		}
		keep[name] = struct{}{}
	}

	for i := range m.Joints {
		if _, ok := keep[m.Joints[i].Name]; !ok {
			m.Joints[i].Type = model.JointFixed
			m.Joints[i].DofOffset = model.InvalidIndex
		}
	}
	return m.SetDofOrder(consideredJoints)
}

func parse(data []byte, baseDir string, opts Options) (*model.Model, error) {
	var robot xmlRobot
	if err := xml.Unmarshal(data, &robot); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse xml")
	}
	if len(robot.Links) == 0 {
		return nil, errors.Errorf("robot %q has no links", robot.Name)
	}

	materials := make(map[string]mgl64.Vec4)
	for _, mat := range robot.Materials {
		if mat.Color == nil {
			continue
		}
		c, err := parseVec4(mat.Color.RGBA)
		if err != nil {
			return nil, errors.Wrapf(err, "material %q", mat.Name)
		}
		materials[mat.Name] = c
	}

	m := model.New()
	m.PackageDirs = opts.PackageDirs
	for _, l := range robot.Links {
		if _, err := m.AddLink(l.Name); err != nil {
			return nil, err
		}
	}

	for _, xj := range robot.Joints {
		j, err := parseJoint(m, &xj)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", xj.Name)
		}
		if _, err := m.AddJoint(j); err != nil {
			return nil, err
		}
	}

	root, err := findRoot(m)
	if err != nil {
		return nil, err
	}
	m.DefaultBaseLink = root

	for li, l := range robot.Links {
		for _, v := range l.Visuals {
			s, err := parseShape(&v, materials, baseDir, opts)
			if err != nil {
				return nil, errors.Wrapf(err, "link %q visual", l.Name)
			}
			if err := m.AddVisualShape(li, s); err != nil {
				return nil, err
			}
		}
		for _, c := range l.Collisions {
			s, err := parseShape(&c, materials, baseDir, opts)
			if err != nil {
				return nil, errors.Wrapf(err, "link %q collision", l.Name)
			}
			if err := m.AddCollisionShape(li, s); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func findRoot(m *model.Model) (int, error) {
	hasParent := make([]bool, m.LinkCount())
	for _, j := range m.Joints {
		hasParent[j.Child] = true
	}
	root := model.InvalidIndex
	for li, ok := range hasParent {
		if ok {
			continue
		}
		if root != model.InvalidIndex {
			return model.InvalidIndex, errors.Errorf("links %q and %q both have no parent", m.LinkName(root), m.LinkName(li))
		}
		root = li
	}
	if root == model.InvalidIndex {
		return model.InvalidIndex, errors.New("no root link")
	}
	return root, nil
}

var jointTypes = map[string]model.JointType{
	"fixed":      model.JointFixed,
	"revolute":   model.JointRevolute,
	"continuous": model.JointContinuous,
	"prismatic":  model.JointPrismatic,
}

func parseJoint(m *model.Model, xj *xmlJoint) (model.Joint, error) {
	jt, ok := jointTypes[xj.Type]
	if !ok {
		return model.Joint{}, errors.Errorf("unsupported joint type %q", xj.Type)
	}

	parent := m.LinkIndex(xj.Parent.Link)
	if parent == model.InvalidIndex {
		return model.Joint{}, errors.Errorf("parent link %q not found", xj.Parent.Link)
	}
	child := m.LinkIndex(xj.Child.Link)
	if child == model.InvalidIndex {
		return model.Joint{}, errors.Errorf("child link %q not found", xj.Child.Link)
	}

	origin, err := parseOrigin(xj.Origin)
	if err != nil {
		return model.Joint{}, err
	}

	axis := mgl64.Vec3{1, 0, 0}
	if xj.Axis != nil {
		if axis, err = parseVec3(xj.Axis.XYZ, axis); err != nil {
			return model.Joint{}, errors.Wrapf(err, "axis")
		}
	}

	return model.Joint{
		Name:         xj.Name,
		Type:         jt,
		Parent:       parent,
		Child:        child,
		ParentHChild: origin,
		Axis:         axis,
	}, nil
}

func parseShape(xs *xmlShape, materials map[string]mgl64.Vec4, baseDir string, opts Options) (model.SolidShape, error) {
	var s model.SolidShape
	g := &xs.Geometry
	switch {
	case g.Box != nil:
		size, err := parseVec3(g.Box.Size, mgl64.Vec3{})
		if err != nil {
			return s, errors.Wrapf(err, "box size")
		}
		s = model.NewBox(size[0], size[1], size[2])
	case g.Sphere != nil:
		r, err := parseFloat(g.Sphere.Radius)
		if err != nil {
			return s, errors.Wrapf(err, "sphere radius")
		}
		s = model.NewSphere(r)
	case g.Cylinder != nil:
		r, err := parseFloat(g.Cylinder.Radius)
		if err != nil {
			return s, errors.Wrapf(err, "cylinder radius")
		}
		length, err := parseFloat(g.Cylinder.Length)
		if err != nil {
			return s, errors.Wrapf(err, "cylinder length")
		}
		s = model.NewCylinder(r, length)
	case g.Mesh != nil:
		scale, err := parseVec3(g.Mesh.Scale, mgl64.Vec3{1, 1, 1})
		if err != nil {
			return s, errors.Wrapf(err, "mesh scale")
		}
		s = model.NewExternalMesh(meshFilename(g.Mesh.Filename, baseDir), scale)
		s.Mesh.PackageDirs = opts.PackageDirs
	default:
		return s, errors.New("geometry is empty")
	}

	s.Name = xs.Name
	origin, err := parseOrigin(xs.Origin)
	if err != nil {
		return s, err
	}
	s.LinkHGeometry = origin

	if xs.Material != nil {
		if xs.Material.Color != nil {
			if s.Color, err = parseVec4(xs.Material.Color.RGBA); err != nil {
				return s, errors.Wrapf(err, "material %q", xs.Material.Name)
			}
		} else if c, ok := materials[xs.Material.Name]; ok {
			s.Color = c
		}
	}
	return s, nil
}

func meshFilename(name, baseDir string) string {
	if strings.Contains(name, "://") || filepath.IsAbs(name) || baseDir == "" {
		return name
	}
	return filepath.Join(baseDir, name)
}

func parseOrigin(o *xmlOrigin) (mgl64.Mat4, error) {
	if o == nil {
		return mgl64.Ident4(), nil
	}
	xyz, err := parseVec3(o.XYZ, mgl64.Vec3{})
	if err != nil {
		return mgl64.Mat4{}, errors.Wrapf(err, "origin xyz")
	}
	rpy, err := parseVec3(o.RPY, mgl64.Vec3{})
	if err != nil {
		return mgl64.Mat4{}, errors.Wrapf(err, "origin rpy")
	}
	return utils.Homogeneous(utils.RPYToMat3(rpy), xyz), nil
}

func parseFloats(s string, count int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != count {
		return nil, errors.Errorf("expected %d numbers, got %q", count, s)
	}
	out := make([]float64, count)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	v, err := parseFloats(s, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func parseVec3(s string, def mgl64.Vec3) (mgl64.Vec3, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	v, err := parseFloats(s, 3)
	if err != nil {
		return def, err
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

func parseVec4(s string) (mgl64.Vec4, error) {
	v, err := parseFloats(s, 4)
	if err != nil {
		return mgl64.Vec4{}, err
	}
	return mgl64.Vec4{v[0], v[1], v[2], v[3]}, nil
}
