package geometry

import (
	"bytes"
	"encoding/xml"
	"os"

	"github.com/pkg/errors"
)

// MeshLoader reads a mesh file into a geometry. Parsing of the mesh itself
// happens in the browser; loaders only check the file looks like the format
// they claim.
type MeshLoader interface {
	Load(path string) (*Geometry, error)
}

type ColladaLoader struct{}

func (ColladaLoader) Load(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read")
	}

	var root struct {
		XMLName xml.Name
	}
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse collada")
	}
	if root.XMLName.Local != "COLLADA" {
		return nil, errors.Errorf("unexpected collada root element %q", root.XMLName.Local)
	}
	return NewMeshFile("dae", data, path), nil
}

type ObjLoader struct{}

func (ObjLoader) Load(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read")
	}
	return NewMeshFile("obj", data, path), nil
}

type StlLoader struct{}

const stlBinaryHeaderSize = 80 + 4

func (StlLoader) Load(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read")
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) && len(data) < stlBinaryHeaderSize {
		return nil, errors.Errorf("stl file is too short (%d bytes)", len(data))
	}
	return NewMeshFile("stl", data, path), nil
}
