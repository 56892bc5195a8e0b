package optimize

import (
	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/diag"
	"github.com/emwerks/coilplan/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// applyBoundary keeps a proposed center at least its own radius away
// from the surface boundary. A gentle counter-force away from the
// nearest boundary vertex is tried first; if the geometry leaves no
// room for that, the center is clamped to exactly radius from the
// boundary. The returned flag is the latched OnBoundary state.
func applyBoundary(st *State, idx int, proposed mgl64.Vec3, radius float64) (mgl64.Vec3, bool) {
	bi, bd := st.Surf.NearestBoundaryVertex(proposed)
	if bi < 0 || bd >= radius {
		return proposed, false
	}

	boundary := st.Surf.Vertices[bi].Point
	away := proposed.Sub(boundary)
	clamped := false
	if away.Len() > 1e-12 {
		proposed = proposed.Add(away.Normalize().Mul(radius - bd))
	} else {
		// Center landed on the boundary vertex itself; push along the
		// surface tangent toward the mesh interior.
		inward := geom.Reject(st.Surf.Vertices[bi].Normal.Cross(mgl64.Vec3{0, 0, 1}), st.Surf.Vertices[bi].Normal)
		if inward.Len() < 1e-12 {
			inward = geom.Perpendicular(st.Surf.Vertices[bi].Normal)
		}
		proposed = boundary.Add(inward.Normalize().Mul(radius))
		clamped = true
	}

	// The push may have slid the center toward another stretch of
	// boundary; fall back to a hard clamp if still too close.
	if bi2, bd2 := st.Surf.NearestBoundaryVertex(proposed); bd2 < radius {
		away = proposed.Sub(st.Surf.Vertices[bi2].Point)
		if away.Len() > 1e-12 {
			proposed = st.Surf.Vertices[bi2].Point.Add(away.Normalize().Mul(radius))
		}
		clamped = true
	}

	st.Sink.Publish(diag.BoundaryContactEvent{
		Circle: idx, Center: proposed, Distance: bd, Clamped: clamped,
	})
	return proposed, true
}

// applyFreedom clamps a candidate circle into the hard freedom box
// around its original parameters: center displacement at most
// CenterFreedom·originalRadius, radius within ±RadiusFreedom of the
// original.
func applyFreedom(st *State, idx int, c coil.Circle) coil.Circle {
	orig := st.Originals[idx]

	disp := c.Center.Sub(orig.Center)
	maxDisp := st.CenterFreedom * orig.Radius
	if l := disp.Len(); l > maxDisp {
		if maxDisp <= 0 {
			c.Center = orig.Center
		} else {
			c.Center = orig.Center.Add(disp.Mul(maxDisp / l))
		}
	}

	lo := orig.Radius * (1 - st.RadiusFreedom)
	hi := orig.Radius * (1 + st.RadiusFreedom)
	if c.Radius < lo || c.Radius > hi {
		clamped := mgl64.Clamp(c.Radius, lo, hi)
		st.Sink.Publish(diag.RadiusClampEvent{Circle: idx, Requested: c.Radius, Clamped: clamped})
		c.Radius = clamped
	}
	return c
}

// finishStep runs the shared tail of every strategy's per-circle
// update: boundary handling, the freedom box, and the snap back onto
// the surface that keeps circles physically valid. A center the clamps
// returned to its pre-step position is already on the surface and is
// not re-projected; snapping it would drag an interior-of-face center
// to the nearest vertex.
func finishStep(st *State, idx int, c coil.Circle) coil.Circle {
	center, onBoundary := applyBoundary(st, idx, c.Center, c.Radius)
	c.Center = center
	c.OnBoundary = onBoundary
	c = applyFreedom(st, idx, c)
	if c.Center != st.Circles[idx].Center {
		c.Center = st.Surf.Snap(c.Center)
	}
	return c
}
