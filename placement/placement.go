// Package placement computes the matrices that position viewer nodes.
// All results are homogeneous with the translation in column 3.
package placement

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/robot_viewer/model"
	"github.com/mogaika/robot_viewer/utils"
)

// ArrowEpsilon is the vector length under which arrows keep no rotation.
const ArrowEpsilon = 1e-6

// ComputeTransform places a shape attached to a link at worldHLink. Meshes are
// additionally scaled in their own geometry frame.
func ComputeTransform(worldHLink mgl64.Mat4, shape *model.SolidShape, isMesh bool) mgl64.Mat4 {
	worldHGeometry := worldHLink.Mul4(shape.LinkHGeometry)
	if !isMesh {
		return worldHGeometry
	}
	s := shape.Mesh.Scale
	return worldHGeometry.Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

// PoseTransform builds the matrix of a free standing shape.
func PoseTransform(position mgl64.Vec3, rotation mgl64.Mat3) mgl64.Mat4 {
	return utils.Homogeneous(rotation, position)
}

// ArrowTransform stretches a unit cylinder along z so that it spans from
// origin to origin+vector.
func ArrowTransform(origin, vector mgl64.Vec3) mgl64.Mat4 {
	center := origin.Add(vector.Mul(0.5))
	length := vector.Len()
	if length < ArrowEpsilon {
		return utils.Homogeneous(mgl64.Ident3(), center)
	}

	r := utils.AlignVectors(mgl64.Vec3{0, 0, 1}, vector.Mul(1/length), ArrowEpsilon)
	s := mgl64.Diag3(mgl64.Vec3{1, 1, length})
	return utils.Homogeneous(r.Mul3(s), center)
}
