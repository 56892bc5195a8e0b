package coil

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrTooFewPoints is returned when a sphere band intersection
	// yields fewer than the three points needed to form a ring.
	ErrTooFewPoints = errors.New("fewer than 3 candidate points")

	// ErrLengthMismatch is returned when the point and normal lists
	// handed to the cleaner differ in length.
	ErrLengthMismatch = errors.New("point and normal counts differ")

	// ErrNoMinimumAngle is returned when no starting point with a
	// well-defined minimum angle exists, typically because an angle
	// computation produced NaN on degenerate input.
	ErrNoMinimumAngle = errors.New("no minimum-angle point found")

	// ErrAngleOverrun is returned when a detected edge span wraps past
	// the full ring, meaning the angular sequence never settles into
	// distinct bins.
	ErrAngleOverrun = errors.New("angle advanced past its last bin")
)

// ReconstructError reports a NaN produced while re-projecting a
// cleaned ring point, a symptom of a degenerate local frame. It keeps
// the offending inputs for diagnosis.
type ReconstructError struct {
	Index  int
	Center mgl64.Vec3
	Normal mgl64.Vec3
	Theta  float64
	Phi    float64
}

func (e *ReconstructError) Error() string {
	return fmt.Sprintf(
		"coil: NaN reconstructing ring point %d (theta=%g phi=%g center=%v normal=%v)",
		e.Index, e.Theta, e.Phi, e.Center, e.Normal,
	)
}
