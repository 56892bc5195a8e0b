package surface

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// BoundaryVertexIndices returns the sorted unique indices of every
// vertex touching an edge with fewer than two adjacent faces. On a
// closed 2-manifold the result is empty. The scan is cached until the
// surface is mutated.
func (s *Surface) BoundaryVertexIndices() []int {
	if s.boundaryVertices != nil {
		return s.boundaryVertices
	}
	ids := make([]int, 0)
	for _, e := range s.Edges {
		if e.Boundary() {
			ids = append(ids, e.Vertices[0], e.Vertices[1])
		}
	}
	slices.Sort(ids)
	s.boundaryVertices = slices.Compact(ids)
	return s.boundaryVertices
}

// MeanEdgeLength returns the average edge length, the natural scale of
// the mesh resolution. Zero for a surface without edges.
func (s *Surface) MeanEdgeLength() float64 {
	if len(s.Edges) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range s.Edges {
		sum += s.Vertices[e.Vertices[1]].Point.Sub(s.Vertices[e.Vertices[0]].Point).Len()
	}
	return sum / float64(len(s.Edges))
}

// NearestVertex returns the index of the vertex closest to p, using
// the spatial grid. Returns -1 for an empty surface.
func (s *Surface) NearestVertex(p mgl64.Vec3) int {
	if len(s.Vertices) == 0 {
		return -1
	}
	return s.vertexGrid().nearest(p)
}

// Snap returns the position of the vertex nearest to p, the projection
// used to keep coil centers on the surface after every optimizer step.
// On an empty surface p comes back unchanged.
func (s *Surface) Snap(p mgl64.Vec3) mgl64.Vec3 {
	i := s.NearestVertex(p)
	if i < 0 {
		return p
	}
	return s.Vertices[i].Point
}

// NormalAt returns the accumulated surface normal at the vertex
// nearest to p, or the zero vector on an empty surface.
func (s *Surface) NormalAt(p mgl64.Vec3) mgl64.Vec3 {
	i := s.NearestVertex(p)
	if i < 0 {
		return mgl64.Vec3{}
	}
	return s.Vertices[i].Normal
}

// NearestBoundaryVertex returns the boundary vertex index closest to p
// and its distance. Returns (-1, +Inf) when the surface is closed.
func (s *Surface) NearestBoundaryVertex(p mgl64.Vec3) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for _, vi := range s.BoundaryVertexIndices() {
		d := s.Vertices[vi].Point.Sub(p).Len()
		if d < bestDist {
			best = vi
			bestDist = d
		}
	}
	return best, bestDist
}
