// Package geom provides the small set of 3D operations the rest of the
// module needs on top of mgl64: projection/rejection, signed in-plane
// angles, rotation about an arbitrary axis, and planes in Hesse normal
// form.
//
// Points and vectors are both mgl64.Vec3; the distinction is purely in
// how a function names its parameters.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Project returns the component of v parallel to dir.
// dir does not need to be normalized but must be non-zero.
func Project(v, dir mgl64.Vec3) mgl64.Vec3 {
	d2 := dir.Dot(dir)
	return dir.Mul(v.Dot(dir) / d2)
}

// Reject returns the component of v perpendicular to dir.
// This is the projection of v onto the plane with normal dir.
func Reject(v, dir mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(Project(v, dir))
}

// RotateAbout rotates v by angle radians about axis (right-hand rule).
// axis must be non-zero; it is normalized internally.
func RotateAbout(v, axis mgl64.Vec3, angle float64) mgl64.Vec3 {
	q := mgl64.QuatRotate(angle, axis.Normalize())
	return q.Rotate(v)
}

// Angle returns the unsigned angle between a and b in [0, π].
// The dot product is clamped before acos to stop rounding error from
// producing NaN for (anti)parallel vectors.
func Angle(a, b mgl64.Vec3) float64 {
	d := a.Normalize().Dot(b.Normalize())
	return math.Acos(mgl64.Clamp(d, -1, 1))
}

// SignedAngle returns the angle from a to b in (-π, π], measured in the
// plane with normal n. The sign follows the right-hand rule about n:
// positive when rotating a toward b counter-clockwise as seen from the
// tip of n.
func SignedAngle(a, b, n mgl64.Vec3) float64 {
	angle := Angle(a, b)
	if a.Cross(b).Dot(n) < 0 {
		return -angle
	}
	return angle
}

// HasNaN reports whether any component of v is NaN.
func HasNaN(v mgl64.Vec3) bool {
	return math.IsNaN(v.X()) || math.IsNaN(v.Y()) || math.IsNaN(v.Z())
}

// Perpendicular returns an arbitrary unit vector perpendicular to v.
// v must be non-zero.
func Perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	// Cross with the axis v is least aligned with, so the result is
	// never degenerate.
	other := mgl64.Vec3{1, 0, 0}
	if math.Abs(v.X()) > math.Abs(v.Y()) {
		other = mgl64.Vec3{0, 1, 0}
	}
	return v.Cross(other).Normalize()
}
