package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewPlaneNormalizes(t *testing.T) {
	pl := NewPlane(mgl64.Vec3{0, 0, 4}, 8)
	if math.Abs(pl.Normal.Len()-1) > tolerance {
		t.Fatalf("normal not unit: %v", pl.Normal)
	}
	// Offset re-expressed against the unit normal: plane z = 2.
	if math.Abs(pl.Offset-2) > tolerance {
		t.Errorf("offset = %v, want 2", pl.Offset)
	}
}

func TestPlaneFromPoints(t *testing.T) {
	pl := PlaneFromPoints(
		mgl64.Vec3{0, 0, 3},
		mgl64.Vec3{1, 0, 3},
		mgl64.Vec3{0, 1, 3},
	)
	vecNear(t, pl.Normal, mgl64.Vec3{0, 0, 1}, tolerance)
	if math.Abs(pl.Offset-3) > tolerance {
		t.Errorf("offset = %v, want 3", pl.Offset)
	}
}

func TestSignedDistance(t *testing.T) {
	pl := PlaneFromPointNormal(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1})

	if d := pl.SignedDistance(mgl64.Vec3{5, 5, 3}); math.Abs(d-2) > tolerance {
		t.Errorf("above: %v, want 2", d)
	}
	if d := pl.SignedDistance(mgl64.Vec3{0, 0, -1}); math.Abs(d+2) > tolerance {
		t.Errorf("below: %v, want -2", d)
	}
}

func TestProjectAndReflect(t *testing.T) {
	pl := PlaneFromPointNormal(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 1})
	p := mgl64.Vec3{1, 1, 5}

	vecNear(t, pl.Project(p), mgl64.Vec3{1, 1, 2}, tolerance)
	vecNear(t, pl.ReflectPoint(p), mgl64.Vec3{1, 1, -1}, tolerance)

	t.Run("reflection is an involution", func(t *testing.T) {
		vecNear(t, pl.ReflectPoint(pl.ReflectPoint(p)), p, tolerance)
	})

	t.Run("vector reflection ignores offset", func(t *testing.T) {
		v := mgl64.Vec3{1, 2, 3}
		vecNear(t, pl.ReflectVector(v), mgl64.Vec3{1, 2, -3}, tolerance)
	})
}
