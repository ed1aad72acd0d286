// Package viewer defines the scene graph viewer the visualizer pushes to, and
// a headless in-memory implementation of it.
package viewer

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/robot_viewer/geometry"
)

// Viewer is a path addressed object store rendered somewhere else. Paths are
// slash separated, a transform set on a path applies to everything below it.
type Viewer interface {
	SetObject(path string, obj *geometry.Object) error
	SetTransform(path string, m mgl64.Mat4) error
	Open() error
	// EmbedSnippet is html that shows the viewer inside a notebook cell.
	EmbedSnippet() string
}

const (
	CmdSetObject    = "set_object"
	CmdSetTransform = "set_transform"
)

// Command is a single scene update as sent to browsers.
type Command struct {
	Type   string           `json:"type"`
	Path   string           `json:"path"`
	Object *geometry.Object `json:"object,omitempty"`
	Matrix *mgl64.Mat4      `json:"matrix,omitempty"`
}

func SetObjectCommand(path string, obj *geometry.Object) Command {
	return Command{Type: CmdSetObject, Path: path, Object: obj}
}

func SetTransformCommand(path string, m mgl64.Mat4) Command {
	return Command{Type: CmdSetTransform, Path: path, Matrix: &m}
}
