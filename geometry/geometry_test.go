package geometry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/robot_viewer/model"
)

const colladaDoc = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <asset><unit meter="1"/></asset>
</COLLADA>
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolvePrimitives(t *testing.T) {
	r := NewResolver()

	sphere := model.NewSphere(0.3)
	g, isMesh, err := r.Resolve(&sphere)
	require.NoError(t, err)
	assert.False(t, isMesh)
	assert.Equal(t, TypeSphere, g.Type)
	assert.Equal(t, 0.3, g.Radius)
	assert.Equal(t, mgl64.Ident4(), g.Matrix())

	box := model.NewBox(1, 2, 3)
	g, isMesh, err = r.Resolve(&box)
	require.NoError(t, err)
	assert.False(t, isMesh)
	assert.Equal(t, TypeBox, g.Type)
	assert.Equal(t, []float64{1, 2, 3}, []float64{g.Width, g.Height, g.Depth})

	cyl := model.NewCylinder(0.1, 2)
	g, isMesh, err = r.Resolve(&cyl)
	require.NoError(t, err)
	assert.False(t, isMesh)
	assert.Equal(t, TypeCylinder, g.Type)
	assert.Equal(t, 2.0, g.Height)
	assert.Equal(t, 0.1, g.RadiusTop)
	assert.Equal(t, 0.1, g.RadiusBottom)
}

func TestCylinderIntrinsicRotation(t *testing.T) {
	cyl := model.NewCylinder(0.1, 1)
	g, _, err := NewResolver().Resolve(&cyl)
	require.NoError(t, err)

	// composed with identity world and link transforms
	m := mgl64.Ident4().Mul4(cyl.LinkHGeometry).Mul4(g.Matrix())
	r := m.Mat3()

	// renderer cylinder axis lands on the model cylinder axis
	assert.True(t, r.Mul3x1(mgl64.Vec3{0, 1, 0}).ApproxEqual(mgl64.Vec3{0, 0, 1}))
	assert.True(t, r.Transpose().Mul3x1(mgl64.Vec3{0, 0, 1}).ApproxEqual(mgl64.Vec3{0, 1, 0}))
	assert.True(t, r.Mul3x1(mgl64.Vec3{1, 0, 0}).ApproxEqual(mgl64.Vec3{1, 0, 0}))
	assert.Equal(t, mgl64.Vec4{0, 0, 0, 1}, m.Row(3))
	assert.Equal(t, mgl64.Vec3{}, m.Col(3).Vec3())
}

func TestResolveMeshes(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file    string
		content string
		format  string
	}{
		{"base.dae", colladaDoc, "dae"},
		{"Upper.OBJ", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", "obj"},
		{"fore.stl", "solid fore\nendsolid fore\n", "stl"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			shape := model.NewExternalMesh(path, mgl64.Vec3{1, 1, 1})

			g, isMesh, err := NewResolver().Resolve(&shape)
			require.NoError(t, err)
			assert.True(t, isMesh)
			assert.True(t, g.IsMesh())
			assert.Equal(t, tt.format, g.Format)
			assert.Equal(t, []byte(tt.content), g.Data)
			assert.Equal(t, path, g.Source)
		})
	}
}

func TestResolveUnsupported(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver()

	ply := model.NewExternalMesh(writeFile(t, dir, "part.ply", "ply\n"), mgl64.Vec3{1, 1, 1})
	missing := model.NewExternalMesh(filepath.Join(dir, "missing.stl"), mgl64.Vec3{1, 1, 1})
	var unknown model.SolidShape

	for _, shape := range []*model.SolidShape{&ply, &missing, &unknown} {
		g, isMesh, err := r.Resolve(shape)
		assert.Nil(t, g)
		assert.False(t, isMesh)
		assert.True(t, errors.Is(err, ErrUnsupportedGeometry), "%v", err)
	}
}

func TestResolveMissingLoader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "part.stl", "solid part\nendsolid part\n")
	shape := model.NewExternalMesh(path, mgl64.Vec3{1, 1, 1})

	r := NewResolver()
	r.SetLoader(".STL", nil)
	g, isMesh, err := r.Resolve(&shape)
	assert.Nil(t, g)
	assert.True(t, isMesh)
	assert.True(t, errors.Is(err, ErrUnsupportedGeometry))
}

func TestColladaLoaderRejectsOtherXML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "robot.dae", "<robot name=\"r\"/>")
	_, err := ColladaLoader{}.Load(path)
	assert.Error(t, err)
}

func TestObjectJSON(t *testing.T) {
	obj := NewObject(NewCylinder(1, 0.5), NewMaterial([4]float64{1, 0, 0, 0.5}))

	data, err := json.Marshal(obj)
	require.NoError(t, err)

	var decoded struct {
		Geometry map[string]interface{} `json:"geometry"`
		Material map[string]interface{} `json:"material"`
		Matrix   []float64              `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeCylinder, decoded.Geometry["type"])
	assert.Equal(t, 0.5, decoded.Geometry["radiusTop"])
	assert.NotContains(t, decoded.Geometry, "Intrinsic")
	assert.Equal(t, float64(0xff0000), decoded.Material["color"])
	assert.Equal(t, true, decoded.Material["transparent"])
	assert.Equal(t, cylinderIntrinsic[:], decoded.Matrix)
}
