package utils

import (
	"github.com/go-gl/mathgl/mgl64"
)

// fixed axis roll-pitch-yaw in radians: R = Rz(yaw) * Ry(pitch) * Rx(roll)
func RPYToMat3(rpy mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Rotate3DZ(rpy[2]).Mul3(mgl64.Rotate3DY(rpy[1])).Mul3(mgl64.Rotate3DX(rpy[0]))
}

// Homogeneous builds [R p; 0 1].
func Homogeneous(rotation mgl64.Mat3, position mgl64.Vec3) mgl64.Mat4 {
	m := rotation.Mat4()
	m.SetCol(3, position.Vec4(1))
	return m
}

func Translation(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// Skew returns [v]x so that Skew(a).Mul3x1(b) == a.Cross(b).
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v[2], v[1]},
		mgl64.Vec3{v[2], 0, -v[0]},
		mgl64.Vec3{-v[1], v[0], 0},
	)
}

// AlignVectors returns the minimal rotation taking unit vector from onto unit vector to.
// Antiparallel inputs have no unique minimal rotation; identity is returned for
// any pair whose cross product vanishes.
func AlignVectors(from, to mgl64.Vec3, epsilon float64) mgl64.Mat3 {
	v := from.Cross(to)
	s := v.Len()
	if s < epsilon {
		return mgl64.Ident3()
	}
	c := from.Dot(to)
	k := Skew(v)
	return mgl64.Ident3().Add(k).Add(k.Mul3(k).Mul((1 - c) / (s * s)))
}

// IsHomogeneous checks the bottom row is exactly [0 0 0 1].
func IsHomogeneous(m mgl64.Mat4) bool {
	return m.Row(3) == mgl64.Vec4{0, 0, 0, 1}
}

// column-major float32 copy, the layout three.js and glTF expect
func Mat4ToFloat32(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
