package gltfutils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/robot_viewer/geometry"
)

const (
	sphereSegments   = 24
	sphereRings      = 12
	cylinderSegments = 24
)

type triangleMesh struct {
	positions [][3]float32
	normals   [][3]float32
	indices   []uint32
}

func (tm *triangleMesh) vertex(p, n mgl32.Vec3) uint32 {
	tm.positions = append(tm.positions, p)
	tm.normals = append(tm.normals, n)
	return uint32(len(tm.positions) - 1)
}

func (tm *triangleMesh) quad(a, b, c, d uint32) {
	tm.indices = append(tm.indices, a, b, c, a, c, d)
}

// buildMesh triangulates analytic geometries with the same axis conventions
// as the browser renderer. Mesh files return nil.
func buildMesh(g *geometry.Geometry) *triangleMesh {
	switch g.Type {
	case geometry.TypeBox:
		return boxMesh(float32(g.Width), float32(g.Height), float32(g.Depth))
	case geometry.TypeSphere:
		return sphereMesh(float32(g.Radius))
	case geometry.TypeCylinder:
		return cylinderMesh(float32(g.RadiusTop), float32(g.Height))
	default:
		return nil
	}
}

func boxMesh(x, y, z float32) *triangleMesh {
	tm := &triangleMesh{}
	half := mgl32.Vec3{x / 2, y / 2, z / 2}

	for axis := 0; axis < 3; axis++ {
		u, v := (axis+1)%3, (axis+2)%3
		for _, sign := range []float32{1, -1} {
			var n mgl32.Vec3
			n[axis] = sign

			corner := func(su, sv float32) mgl32.Vec3 {
				var p mgl32.Vec3
				p[axis] = sign * half[axis]
				p[u] = su * half[u]
				p[v] = sv * half[v]
				return p
			}
			a := tm.vertex(corner(-1, -1), n)
			b := tm.vertex(corner(1, -1), n)
			c := tm.vertex(corner(1, 1), n)
			d := tm.vertex(corner(-1, 1), n)
			if sign > 0 {
				tm.quad(a, b, c, d)
			} else {
				tm.quad(a, d, c, b)
			}
		}
	}
	return tm
}

func sphereMesh(r float32) *triangleMesh {
	tm := &triangleMesh{}
	for ring := 0; ring <= sphereRings; ring++ {
		theta := math.Pi * float64(ring) / sphereRings
		for seg := 0; seg <= sphereSegments; seg++ {
			phi := 2 * math.Pi * float64(seg) / sphereSegments
			n := mgl32.Vec3{
				float32(math.Sin(theta) * math.Cos(phi)),
				float32(math.Cos(theta)),
				float32(math.Sin(theta) * math.Sin(phi)),
			}
			tm.vertex(n.Mul(r), n)
		}
	}

	row := uint32(sphereSegments + 1)
	for ring := uint32(0); ring < sphereRings; ring++ {
		for seg := uint32(0); seg < sphereSegments; seg++ {
			a := ring*row + seg
			tm.quad(a, a+1, a+row+1, a+row)
		}
	}
	return tm
}

// cylinderMesh grows along y, centered on the origin.
func cylinderMesh(r, height float32) *triangleMesh {
	tm := &triangleMesh{}
	h := height / 2

	for seg := 0; seg <= cylinderSegments; seg++ {
		phi := 2 * math.Pi * float64(seg) / cylinderSegments
		n := mgl32.Vec3{float32(math.Cos(phi)), 0, float32(math.Sin(phi))}
		tm.vertex(mgl32.Vec3{n[0] * r, h, n[2] * r}, n)
		tm.vertex(mgl32.Vec3{n[0] * r, -h, n[2] * r}, n)
	}
	for seg := uint32(0); seg < cylinderSegments; seg++ {
		a := seg * 2
		tm.quad(a, a+2, a+3, a+1)
	}

	for _, sign := range []float32{1, -1} {
		n := mgl32.Vec3{0, sign, 0}
		center := tm.vertex(mgl32.Vec3{0, sign * h, 0}, n)
		first := uint32(len(tm.positions))
		for seg := 0; seg <= cylinderSegments; seg++ {
			phi := 2 * math.Pi * float64(seg) / cylinderSegments
			tm.vertex(mgl32.Vec3{float32(math.Cos(phi)) * r, sign * h, float32(math.Sin(phi)) * r}, n)
		}
		for seg := uint32(0); seg < cylinderSegments; seg++ {
			if sign > 0 {
				tm.indices = append(tm.indices, center, first+seg+1, first+seg)
			} else {
				tm.indices = append(tm.indices, center, first+seg, first+seg+1)
			}
		}
	}
	return tm
}
