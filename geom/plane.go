package geom

import "github.com/go-gl/mathgl/mgl64"

// Plane is an infinite plane in Hesse normal form: the set of points p
// with p·Normal = Offset. Normal is always stored normalized; the
// constructors normalize whatever they are given.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

// NewPlane builds a plane from a (possibly un-normalized) normal and an
// offset expressed against that same normal's length.
func NewPlane(normal mgl64.Vec3, offset float64) Plane {
	length := normal.Len()
	return Plane{Normal: normal.Mul(1 / length), Offset: offset / length}
}

// PlaneFromPointNormal builds the plane through point with the given
// normal direction.
func PlaneFromPointNormal(point, normal mgl64.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Offset: point.Dot(n)}
}

// PlaneFromPoints builds the plane through three non-collinear points,
// with the normal following the right-hand rule around a, b, c.
func PlaneFromPoints(a, b, c mgl64.Vec3) Plane {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return Plane{Normal: n, Offset: a.Dot(n)}
}

// SignedDistance returns the distance from p to the plane, positive on
// the side the normal points into.
func (pl Plane) SignedDistance(p mgl64.Vec3) float64 {
	return p.Dot(pl.Normal) - pl.Offset
}

// Project returns the closest point on the plane to p.
func (pl Plane) Project(p mgl64.Vec3) mgl64.Vec3 {
	return p.Sub(pl.Normal.Mul(pl.SignedDistance(p)))
}

// ReflectPoint mirrors p across the plane.
func (pl Plane) ReflectPoint(p mgl64.Vec3) mgl64.Vec3 {
	return p.Sub(pl.Normal.Mul(2 * pl.SignedDistance(p)))
}

// ReflectVector mirrors a direction across the plane (offset ignored).
func (pl Plane) ReflectVector(v mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(pl.Normal.Mul(2 * v.Dot(pl.Normal)))
}
