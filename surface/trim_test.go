package surface

import (
	"math"
	"testing"

	"github.com/emwerks/coilplan/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// column builds a vertical strip of quads: 2 columns of vertices at
// x=0 and x=1, rows at z = 0..height, each quad split into two
// triangles. Open surface facing +Y.
func column(t *testing.T, height int) *Surface {
	t.Helper()
	var points []mgl64.Vec3
	for z := 0; z <= height; z++ {
		points = append(points, mgl64.Vec3{0, 0, float64(z)}, mgl64.Vec3{1, 0, float64(z)})
	}
	var tris [][3]int
	for z := 0; z < height; z++ {
		a, b := 2*z, 2*z+1
		c, d := 2*z+2, 2*z+3
		tris = append(tris, [3]int{a, c, b}, [3]int{b, c, d})
	}
	s, err := New(points, tris)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestTrimByPlaneKeepsHalfSpace(t *testing.T) {
	s := column(t, 4)
	// Keep z >= 2.
	plane := geom.PlaneFromPointNormal(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 1})

	trimmed, cut, err := s.TrimByPlane(plane, false)
	if err != nil {
		t.Fatalf("TrimByPlane: %v", err)
	}

	for i, v := range trimmed.Vertices {
		if plane.SignedDistance(v.Point) < 0 {
			t.Errorf("vertex %d at %v survived below the plane", i, v.Point)
		}
	}
	// Rows z=2,3,4 survive; the z=2 row is the cut boundary (its
	// faces down to z=1 straddled the plane).
	if len(trimmed.Vertices) != 6 {
		t.Errorf("%d vertices survived, want 6", len(trimmed.Vertices))
	}
	if len(cut) != 2 {
		t.Fatalf("cut boundary = %v, want 2 vertices", cut)
	}
	for _, vi := range cut {
		if d := plane.SignedDistance(trimmed.Vertices[vi].Point); math.Abs(d) > 1e-12 {
			t.Errorf("cut vertex %d at distance %v from plane", vi, d)
		}
	}
}

func TestTrimByPlaneIdempotent(t *testing.T) {
	s := column(t, 4)
	plane := geom.PlaneFromPointNormal(mgl64.Vec3{0, 0, 1.5}, mgl64.Vec3{0, 0, 1})

	once, _, err := s.TrimByPlane(plane, false)
	if err != nil {
		t.Fatalf("first trim: %v", err)
	}
	twice, cut, err := once.TrimByPlane(plane, false)
	if err != nil {
		t.Fatalf("second trim: %v", err)
	}

	if len(twice.Vertices) != len(once.Vertices) {
		t.Errorf("re-trim removed vertices: %d -> %d", len(once.Vertices), len(twice.Vertices))
	}
	if len(twice.Faces) != len(once.Faces) {
		t.Errorf("re-trim removed faces: %d -> %d", len(once.Faces), len(twice.Faces))
	}
	if len(cut) != 0 {
		t.Errorf("re-trim produced new cut vertices %v", cut)
	}
}

func TestTrimFlattenCut(t *testing.T) {
	s := column(t, 4)
	// Plane between rows so the straddling row z=2 gets projected
	// down onto z=1.5 when flattening.
	plane := geom.PlaneFromPointNormal(mgl64.Vec3{0, 0, 1.5}, mgl64.Vec3{0, 0, 1})

	trimmed, cut, err := s.TrimByPlane(plane, true)
	if err != nil {
		t.Fatalf("TrimByPlane: %v", err)
	}
	if len(cut) == 0 {
		t.Fatal("expected cut-boundary vertices")
	}
	for _, vi := range cut {
		v := trimmed.Vertices[vi]
		if d := plane.SignedDistance(v.Point); math.Abs(d) > 1e-12 {
			t.Errorf("flattened vertex %d still at distance %v", vi, d)
		}
		if dot := v.Normal.Dot(plane.Normal); math.Abs(dot) > 1e-9 {
			t.Errorf("flattened vertex %d normal %v not in plane", vi, v.Normal)
		}
	}

	// Faces touching moved vertices must have their area recomputed:
	// the surviving row at z=2 moved down to z=1.5, stretching its
	// quad row from height 1 to 1.5, so each triangle covers 0.75.
	for fi, f := range trimmed.Faces {
		touchesCut := false
		for _, vi := range f.Vertices {
			for _, ci := range cut {
				if vi == ci {
					touchesCut = true
				}
			}
		}
		if touchesCut && math.Abs(f.Area-0.75) > 1e-12 {
			t.Errorf("face %d area = %v, want 0.75 after flatten", fi, f.Area)
		}
	}
}

func TestTrimRemovesEverything(t *testing.T) {
	s := column(t, 2)
	plane := geom.PlaneFromPointNormal(mgl64.Vec3{0, 0, 100}, mgl64.Vec3{0, 0, 1})

	trimmed, cut, err := s.TrimByPlane(plane, false)
	if err != nil {
		t.Fatalf("TrimByPlane: %v", err)
	}
	if len(trimmed.Vertices) != 0 || len(trimmed.Faces) != 0 || len(cut) != 0 {
		t.Errorf("expected empty result, got %d vertices %d faces cut=%v",
			len(trimmed.Vertices), len(trimmed.Faces), cut)
	}
}

func TestTrimBoundaryMatchesCut(t *testing.T) {
	s := column(t, 4)
	plane := geom.PlaneFromPointNormal(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 1})

	trimmed, cut, err := s.TrimByPlane(plane, false)
	if err != nil {
		t.Fatalf("TrimByPlane: %v", err)
	}

	boundary := trimmed.BoundaryVertexIndices()
	for _, ci := range cut {
		found := false
		for _, bi := range boundary {
			if bi == ci {
				found = true
			}
		}
		if !found {
			t.Errorf("cut vertex %d not reported as boundary (boundary %v)", ci, boundary)
		}
	}
}
