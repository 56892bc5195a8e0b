// Package coil holds the coil data model and the ring extraction
// pipeline: intersecting a sphere band with a surface mesh and cleaning
// the resulting point cloud into an ordered, smooth closed ring.
package coil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is one point of a coil's wire path: its position, the surface
// normal under it, and the wire cross-section "up" direction used when
// sweeping a tube along the ring. WireNormal starts equal to
// SurfaceNormal and is only changed by the overlap resolver.
type Vertex struct {
	Point         mgl64.Vec3
	SurfaceNormal mgl64.Vec3
	WireNormal    mgl64.Vec3
}

// Coil is one realized loop: an ordered closed ring of vertices (the
// last connects back to the first), the wire radius, and the ring
// indices where the wire is broken for capacitive/port elements.
type Coil struct {
	WireRadius float64
	Vertices   []Vertex
	Breaks     []int
}

// Len returns the number of ring vertices.
func (c *Coil) Len() int { return len(c.Vertices) }

// Centroid returns the mean of the ring points.
func (c *Coil) Centroid() mgl64.Vec3 {
	sum := mgl64.Vec3{}
	for _, v := range c.Vertices {
		sum = sum.Add(v.Point)
	}
	return sum.Mul(1 / float64(len(c.Vertices)))
}

// MeanRadius returns the average distance of the ring points from the
// centroid.
func (c *Coil) MeanRadius() float64 {
	center := c.Centroid()
	sum := 0.0
	for _, v := range c.Vertices {
		sum += v.Point.Sub(center).Len()
	}
	return sum / float64(len(c.Vertices))
}

// ArcLength returns the total length of the closed ring polygon.
func (c *Coil) ArcLength() float64 {
	cyc := Cyclic(len(c.Vertices))
	sum := 0.0
	for i := range c.Vertices {
		sum += c.Vertices[cyc.Next(i)].Point.Sub(c.Vertices[i].Point).Len()
	}
	return sum
}

// Clone returns a deep copy. The overlap resolver works on clones so
// an aborted pass never leaves a half-modified ring behind.
func (c *Coil) Clone() *Coil {
	out := &Coil{
		WireRadius: c.WireRadius,
		Vertices:   make([]Vertex, len(c.Vertices)),
		Breaks:     make([]int, len(c.Breaks)),
	}
	copy(out.Vertices, c.Vertices)
	copy(out.Breaks, c.Breaks)
	return out
}

// BreakIndices spreads count break positions evenly around a ring of n
// vertices, rotated by angleOffset radians. Used when realizing a
// circle specification into a coil.
func BreakIndices(n, count int, angleOffset float64) []int {
	if count <= 0 || n == 0 {
		return nil
	}
	cyc := Cyclic(n)
	out := make([]int, 0, count)
	for k := 0; k < count; k++ {
		angle := angleOffset + 2*math.Pi*float64(k)/float64(count)
		out = append(out, cyc.Norm(int(math.Round(angle/(2*math.Pi)*float64(n)))))
	}
	return out
}
