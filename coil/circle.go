package coil

import "github.com/go-gl/mathgl/mgl64"

// Circle is the per-coil layout parameter set the optimizers mutate:
// where the coil sits, how big it is, and how its wire breaks are
// placed. Circles are value types; optimizers return fresh slices each
// iteration instead of mutating in place.
type Circle struct {
	Center           mgl64.Vec3
	Radius           float64
	BreakCount       int
	BreakAngleOffset float64

	// OnSymmetryPlane pins the circle to the symmetry plane in
	// symmetry-aware optimizers.
	OnSymmetryPlane bool

	// OnBoundary latches across iterations once a step has pushed the
	// circle against the surface boundary.
	OnBoundary bool
}
