package gltfutils

import (
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/robot_viewer/geometry"
	"github.com/mogaika/robot_viewer/utils"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	for iNode := range doc.Nodes {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(iNode))
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

// SceneExporter collects scene nodes into a glTF document. Analytic
// primitives become triangle meshes, mesh files become empty nodes since
// their data is only parsed by the browser.
type SceneExporter struct {
	Doc       *gltf.Document
	materials map[geometry.Material]uint32
}

func NewSceneExporter() *SceneExporter {
	return &SceneExporter{
		Doc:       NewDocument(),
		materials: make(map[geometry.Material]uint32),
	}
}

func (se *SceneExporter) material(m geometry.Material) uint32 {
	if id, ok := se.materials[m]; ok {
		return id
	}
	c := utils.ColorFloatFromHex(m.Color, m.Opacity)
	color := new([4]float32)
	*color = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}

	id := uint32(len(se.Doc.Materials))
	se.Doc.Materials = append(se.Doc.Materials, &gltf.Material{
		Name:        "default",
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: color,
		},
	})
	se.materials[m] = id
	return id
}

// AddObject adds a node called name placed at world. The object's own matrix
// is applied below world.
func (se *SceneExporter) AddObject(name string, obj *geometry.Object, world mgl64.Mat4) {
	node := &gltf.Node{
		Name:   name,
		Matrix: utils.Mat4ToFloat32(world.Mul4(obj.Matrix)),
	}

	if mesh := buildMesh(obj.Geometry); mesh != nil {
		positions := modeler.WritePosition(se.Doc, mesh.positions)
		normals := modeler.WriteNormal(se.Doc, mesh.normals)
		indices := modeler.WriteIndices(se.Doc, mesh.indices)

		se.Doc.Meshes = append(se.Doc.Meshes, &gltf.Mesh{
			Name: name,
			Primitives: []*gltf.Primitive{
				&gltf.Primitive{
					Indices: &indices,
					Attributes: map[string]uint32{
						"POSITION": positions,
						"NORMAL":   normals,
					},
					Material: gltf.Index(se.material(obj.Material)),
				},
			},
		})
		node.Mesh = gltf.Index(uint32(len(se.Doc.Meshes) - 1))
	}

	se.Doc.Nodes = append(se.Doc.Nodes, node)
}

// AddGroup adds a node without geometry, used for transforms set on paths
// that carry no object.
func (se *SceneExporter) AddGroup(name string, world mgl64.Mat4) {
	se.Doc.Nodes = append(se.Doc.Nodes, &gltf.Node{
		Name:   name,
		Matrix: utils.Mat4ToFloat32(world),
	})
}
