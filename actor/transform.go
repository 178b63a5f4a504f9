package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and orientation in 3D space
type Transform struct {
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:   mgl64.Vec3{0, 0, 0},
		Quaternion: mgl64.QuatIdent(),
	}
}

// PointToLocal expresses a world point in this frame
func (t Transform) PointToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.Quaternion.Conjugate().Rotate(world.Sub(t.Position))
}

// PointToWorld expresses a local point in world space
func (t Transform) PointToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Quaternion.Rotate(local).Add(t.Position)
}

func (t Transform) VectorToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.Quaternion.Conjugate().Rotate(world)
}

func (t Transform) VectorToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Quaternion.Rotate(local)
}

// Compose applies a local offset and orientation on top of t
func (t Transform) Compose(offset mgl64.Vec3, orientation mgl64.Quat) Transform {
	return Transform{
		Position:   t.PointToWorld(offset),
		Quaternion: t.Quaternion.Mul(orientation),
	}
}
