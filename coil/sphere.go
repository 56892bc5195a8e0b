package coil

import (
	"math"

	"github.com/emwerks/coilplan/surface"
	"github.com/go-gl/mathgl/mgl64"
)

// BandIntersection is the raw result of intersecting a sphere shell
// with the surface: the qualifying vertex positions and normals, and
// the surface vertex globally nearest to the sphere center, which
// anchors the coil's local frame.
type BandIntersection struct {
	Points        []mgl64.Vec3
	Normals       []mgl64.Vec3
	NearestVertex int
}

// SphereIntersect scans every surface vertex and collects those whose
// distance to center is within eps of radius. This approximates the
// true circle-of-intersection by a tolerance band; eps must track the
// mesh resolution (see DefaultBandEpsilon) or the band will be empty
// or several vertices thick.
func SphereIntersect(surf *surface.Surface, center mgl64.Vec3, radius, eps float64) BandIntersection {
	out := BandIntersection{NearestVertex: -1}
	nearestDist := math.Inf(1)

	for i := range surf.Vertices {
		d := surf.Vertices[i].Point.Sub(center).Len()
		if d < nearestDist {
			nearestDist = d
			out.NearestVertex = i
		}
		if math.Abs(d-radius) <= eps {
			out.Points = append(out.Points, surf.Vertices[i].Point)
			out.Normals = append(out.Normals, surf.Vertices[i].Normal)
		}
	}
	return out
}

// DefaultBandEpsilon derives a band tolerance from the mesh
// resolution. It is a starting point, not a guarantee: callers should
// re-tune per mesh density when the band comes back too sparse or too
// thick.
func DefaultBandEpsilon(surf *surface.Surface) float64 {
	return 0.75 * surf.MeanEdgeLength()
}
