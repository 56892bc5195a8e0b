package coil

import (
	"math"
	"testing"

	"github.com/emwerks/coilplan/internal/meshtest"
	"github.com/go-gl/mathgl/mgl64"
)

func TestSphereIntersect(t *testing.T) {
	surf := meshtest.Sphere(10, 16, 24)
	center := mgl64.Vec3{0, 0, 10} // north pole
	radius := 5.0
	eps := DefaultBandEpsilon(surf)

	band := SphereIntersect(surf, center, radius, eps)

	if len(band.Points) == 0 {
		t.Fatal("band is empty")
	}
	if len(band.Points) != len(band.Normals) {
		t.Fatalf("points/normals mismatch: %d vs %d", len(band.Points), len(band.Normals))
	}
	for i, p := range band.Points {
		d := p.Sub(center).Len()
		if math.Abs(d-radius) > eps {
			t.Errorf("point %d at distance %g from center, band is %g±%g", i, d, radius, eps)
		}
		// Band points are mesh vertices, so they stay on the mesh sphere.
		if r := p.Len(); math.Abs(r-10) > 1e-9 {
			t.Errorf("point %d at distance %g from origin, want 10", i, r)
		}
	}

	if band.NearestVertex < 0 {
		t.Fatal("no nearest vertex found")
	}
	nearest := surf.Vertices[band.NearestVertex].Point
	if d := nearest.Sub(center).Len(); d > 1e-9 {
		t.Errorf("nearest vertex %g from center, want the pole itself", d)
	}
}

func TestSphereIntersectEmptyBand(t *testing.T) {
	surf := meshtest.Sphere(10, 8, 12)
	band := SphereIntersect(surf, mgl64.Vec3{100, 0, 0}, 1, 0.1)
	if len(band.Points) != 0 {
		t.Errorf("got %d points in an out-of-reach band", len(band.Points))
	}
	if band.NearestVertex < 0 {
		t.Error("nearest vertex should be reported even for an empty band")
	}
}

func TestDefaultBandEpsilon(t *testing.T) {
	surf := meshtest.Sphere(10, 8, 12)
	want := 0.75 * surf.MeanEdgeLength()
	if got := DefaultBandEpsilon(surf); math.Abs(got-want) > 1e-12 {
		t.Errorf("DefaultBandEpsilon = %g, want %g", got, want)
	}
}
