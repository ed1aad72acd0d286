package gltfutils

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/robot_viewer/geometry"
	"github.com/mogaika/robot_viewer/utils"
)

func TestSceneExporter(t *testing.T) {
	red := geometry.NewMaterial(utils.ColorFloat{1, 0, 0, 1})
	se := NewSceneExporter()

	se.AddObject("robot/base/geometry0", geometry.NewObject(geometry.NewBox(1, 2, 3), red), mgl64.Translate3D(1, 0, 0))
	se.AddObject("robot/upper/geometry0", geometry.NewObject(geometry.NewCylinder(1, 0.1), red), mgl64.Ident4())
	se.AddObject("ball", geometry.NewObject(geometry.NewSphere(0.5), geometry.NewMaterial(utils.White)), mgl64.Ident4())
	se.AddObject("robot/fore/forearm", geometry.NewObject(geometry.NewMeshFile("stl", []byte("solid"), "forearm.stl"), red), mgl64.Ident4())
	se.AddGroup("robot", mgl64.Ident4())

	doc := se.Doc
	require.Len(t, doc.Nodes, 5)
	assert.Len(t, doc.Meshes, 3)
	assert.Len(t, doc.Materials, 2, "materials are shared")

	assert.Equal(t, "robot/base/geometry0", doc.Nodes[0].Name)
	assert.Equal(t, float32(1), doc.Nodes[0].Matrix[12])
	assert.NotNil(t, doc.Nodes[0].Mesh)
	assert.Nil(t, doc.Nodes[3].Mesh)

	// the cylinder node carries its intrinsic rotation
	assert.Equal(t, float32(1), doc.Nodes[1].Matrix[6])
	assert.Equal(t, float32(-1), doc.Nodes[1].Matrix[9])

	var buf bytes.Buffer
	require.NoError(t, ExportBinary(&buf, doc))
	assert.Equal(t, "glTF", buf.String()[:4])
	assert.Len(t, doc.Scenes[0].Nodes, 5)
}

func TestPrimitiveMeshes(t *testing.T) {
	box := boxMesh(1, 2, 3)
	assert.Len(t, box.positions, 24)
	assert.Len(t, box.indices, 36)
	for _, p := range box.positions {
		assert.Equal(t, float32(0.5), abs32(p[0]))
		assert.Equal(t, float32(1), abs32(p[1]))
		assert.Equal(t, float32(1.5), abs32(p[2]))
	}

	cyl := cylinderMesh(0.5, 2)
	for _, p := range cyl.positions {
		assert.Equal(t, float32(1), abs32(p[1]), "cylinder grows along y")
	}
	for _, i := range cyl.indices {
		assert.Less(t, int(i), len(cyl.positions))
	}

	sphere := sphereMesh(2)
	assert.Len(t, sphere.positions, len(sphere.normals))
	for _, i := range sphere.indices {
		assert.Less(t, int(i), len(sphere.positions))
	}

	assert.Nil(t, buildMesh(geometry.NewMeshFile("obj", nil, "")))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
