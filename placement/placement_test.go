package placement

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/mogaika/robot_viewer/model"
	"github.com/mogaika/robot_viewer/utils"
)

func assertNear(t *testing.T, expected, actual mgl64.Vec3) {
	t.Helper()
	assert.InDeltaSlice(t, expected[:], actual[:], 1e-9)
}

func TestMeshScaleInGeometryFrame(t *testing.T) {
	shape := model.NewExternalMesh("part.stl", mgl64.Vec3{2, 1, 1})

	m := ComputeTransform(mgl64.Ident4(), &shape, true)
	assert.Equal(t, mgl64.Diag4(mgl64.Vec4{2, 1, 1, 1}), m)
}

func TestMeshScaleFollowsRotation(t *testing.T) {
	shape := model.NewExternalMesh("part.stl", mgl64.Vec3{2, 1, 1})
	shape.LinkHGeometry = mgl64.Translate3D(0, 0, 1).Mul4(mgl64.HomogRotate3DZ(math.Pi / 2))

	m := ComputeTransform(mgl64.Translate3D(1, 0, 0), &shape, true)

	// local x of the mesh maps to world y and is stretched twice
	x := m.Mul4x1(mgl64.Vec4{1, 0, 0, 0}).Vec3()
	assertNear(t, mgl64.Vec3{0, 2, 0}, x)
	assertNear(t, mgl64.Vec3{1, 0, 1}, utils.Translation(m))
	assert.True(t, utils.IsHomogeneous(m))
}

func TestPrimitiveIgnoresScale(t *testing.T) {
	shape := model.NewBox(1, 1, 1)
	shape.Mesh.Scale = mgl64.Vec3{5, 5, 5}
	shape.LinkHGeometry = mgl64.Translate3D(0, 1, 0)
	world := mgl64.HomogRotate3DX(0.4)

	assert.Equal(t, world.Mul4(shape.LinkHGeometry), ComputeTransform(world, &shape, false))
}

func TestPoseTransform(t *testing.T) {
	r := mgl64.Rotate3DZ(0.3)
	m := PoseTransform(mgl64.Vec3{1, 2, 3}, r)

	assert.Equal(t, r, m.Mat3())
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, utils.Translation(m))
	assert.True(t, utils.IsHomogeneous(m))
}

func TestArrowDegenerate(t *testing.T) {
	m := ArrowTransform(mgl64.Vec3{}, mgl64.Vec3{})
	assert.Equal(t, mgl64.Ident4(), m)

	m = ArrowTransform(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1e-9, 0, 0})
	assert.Equal(t, mgl64.Ident3(), m.Mat3())
	assertNear(t, mgl64.Vec3{1, 2, 3}, utils.Translation(m))
}

func TestArrowAlongZ(t *testing.T) {
	m := ArrowTransform(mgl64.Vec3{}, mgl64.Vec3{0, 0, 2})

	assert.Equal(t, mgl64.Vec3{0, 0, 1}, utils.Translation(m))
	assert.Equal(t, mgl64.Diag3(mgl64.Vec3{1, 1, 2}), m.Mat3())
	assert.True(t, utils.IsHomogeneous(m))
}

func TestArrowGeneralDirection(t *testing.T) {
	origin := mgl64.Vec3{1, 1, 0}
	vector := mgl64.Vec3{3, 0, 4}
	m := ArrowTransform(origin, vector)

	assertNear(t, mgl64.Vec3{2.5, 1, 2}, utils.Translation(m))

	// the unit cylinder spans from origin to origin+vector
	bottom := m.Mul4x1(mgl64.Vec4{0, 0, -0.5, 1}).Vec3()
	top := m.Mul4x1(mgl64.Vec4{0, 0, 0.5, 1}).Vec3()
	assertNear(t, origin, bottom)
	assertNear(t, origin.Add(vector), top)

	// radial directions are not stretched
	radial := m.Mul4x1(mgl64.Vec4{0, 1, 0, 0}).Vec3()
	assert.InDelta(t, 1.0, radial.Len(), 1e-12)
}

func TestArrowOppositeZ(t *testing.T) {
	m := ArrowTransform(mgl64.Vec3{}, mgl64.Vec3{0, 0, -2})

	assert.Equal(t, mgl64.Vec3{0, 0, -1}, utils.Translation(m))
	assert.True(t, utils.IsHomogeneous(m))
}
