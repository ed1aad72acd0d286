package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/robot_viewer/utils"
)

const TypeMeshPhong = "MeshPhongMaterial"

type Material struct {
	Type        string  `json:"type"`
	Color       int     `json:"color"`
	Transparent bool    `json:"transparent"`
	Opacity     float64 `json:"opacity"`
}

// NewMaterial builds a phong material. Transparency is only enabled for
// colors that are not fully opaque.
func NewMaterial(c utils.ColorFloat) Material {
	m := Material{Type: TypeMeshPhong, Color: c.Hex(), Opacity: 1.0}
	if !c.Opaque() {
		m.Transparent = true
		m.Opacity = c.Alpha()
	}
	return m
}

type OverrideKind int

const (
	OverrideNone OverrideKind = iota
	OverrideAlpha
	OverrideRGB
	OverrideRGBA
)

// ColorOverride replaces some channels of a shape color. The zero value keeps
// the shape color.
type ColorOverride struct {
	Kind  OverrideKind
	Value mgl64.Vec4
}

var NoOverride = ColorOverride{}

func AlphaOnly(a float64) ColorOverride {
	return ColorOverride{Kind: OverrideAlpha, Value: mgl64.Vec4{0, 0, 0, a}}
}

func RGB(r, g, b float64) ColorOverride {
	return ColorOverride{Kind: OverrideRGB, Value: mgl64.Vec4{r, g, b, 1}}
}

func RGBA(r, g, b, a float64) ColorOverride {
	return ColorOverride{Kind: OverrideRGBA, Value: mgl64.Vec4{r, g, b, a}}
}

// ParseColorOverride maps 0, 1, 3 or 4 values to no override, alpha, rgb and
// rgba respectively.
func ParseColorOverride(values []float64) (ColorOverride, error) {
	switch len(values) {
	case 0:
		return NoOverride, nil
	case 1:
		return AlphaOnly(values[0]), nil
	case 3:
		return RGB(values[0], values[1], values[2]), nil
	case 4:
		return RGBA(values[0], values[1], values[2], values[3]), nil
	default:
		return NoOverride, errors.Errorf("color needs 1, 3 or 4 values, got %d", len(values))
	}
}

// Apply returns the effective color for a shape whose own color is shapeColor.
func (o ColorOverride) Apply(shapeColor mgl64.Vec4) utils.ColorFloat {
	switch o.Kind {
	case OverrideAlpha:
		return utils.ColorFloat{shapeColor[0], shapeColor[1], shapeColor[2], o.Value[3]}
	case OverrideRGB, OverrideRGBA:
		return utils.ColorFloat(o.Value)
	default:
		return utils.ColorFloat(shapeColor)
	}
}

func (k OverrideKind) String() string {
	switch k {
	case OverrideAlpha:
		return "alpha"
	case OverrideRGB:
		return "rgb"
	case OverrideRGBA:
		return "rgba"
	default:
		return "none"
	}
}
