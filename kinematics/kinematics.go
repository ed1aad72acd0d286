// Package kinematics computes link world transforms of a model from its base
// pose and joint positions.
package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/robot_viewer/model"
)

var ErrSizeMismatch = errors.New("size mismatch")

// JointTransform is the parent_H_child transform of j at joint position q.
func JointTransform(j *model.Joint, q float64) mgl64.Mat4 {
	switch j.Type {
	case model.JointRevolute, model.JointContinuous:
		return j.ParentHChild.Mul4(mgl64.HomogRotate3D(q, j.Axis.Normalize()))
	case model.JointPrismatic:
		d := j.Axis.Normalize().Mul(q)
		return j.ParentHChild.Mul4(mgl64.Translate3D(d[0], d[1], d[2]))
	default:
		return j.ParentHChild
	}
}

// ForwardPositionKinematics fills out with the world transform of every link,
// visiting links in traversal order. jointPos is indexed by joint dof offset.
// out is only written when all sizes match.
func ForwardPositionKinematics(m *model.Model, traversal *model.Traversal,
	worldHBase mgl64.Mat4, jointPos []float64, out model.LinkPositions) error {

	if len(jointPos) != m.DofCount() {
		return errors.Wrapf(ErrSizeMismatch, "joint positions have %d values, model has %d dofs", len(jointPos), m.DofCount())
	}
	if len(out) != m.LinkCount() {
		return errors.Wrapf(ErrSizeMismatch, "link positions hold %d transforms, model has %d links", len(out), m.LinkCount())
	}
	if traversal.Len() != m.LinkCount() {
		return errors.Wrapf(ErrSizeMismatch, "traversal visits %d links, model has %d links", traversal.Len(), m.LinkCount())
	}

	for i := 0; i < traversal.Len(); i++ {
		step := traversal.Step(i)
		if step.ParentJoint == model.InvalidIndex {
			out[step.Link] = worldHBase
			continue
		}

		j := &m.Joints[step.ParentJoint]
		q := 0.0
		if j.DofOffset != model.InvalidIndex {
			q = jointPos[j.DofOffset]
		}
		parentHChild := JointTransform(j, q)

		// the traversal may walk a joint against its declared direction
		if j.Child == step.Link {
			out[step.Link] = out[step.ParentLink].Mul4(parentHChild)
		} else {
			out[step.Link] = out[step.ParentLink].Mul4(parentHChild.Inv())
		}
	}
	return nil
}
