// Package optimize contains the layout strategies that iteratively
// adjust circle centers and radii to minimize pairwise magnetic
// coupling, subject to surface, boundary and freedom constraints.
//
// All strategies share one contract: the caller realizes the current
// circle parameters into coil rings, hands the realized layout to
// Update, and receives a fresh parameter slice for the next iteration.
// Updates never mutate their inputs.
package optimize

import (
	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/diag"
	"github.com/emwerks/coilplan/surface"
)

// State is everything a Method sees for one iteration: the current
// parameters, the layout realized from them, optional static
// neighbors, and the shared tunables.
type State struct {
	Surf   *surface.Surface
	Oracle coil.Inductance
	Sink   *diag.Sink

	// Circles are the current parameters; Coils the layout realized
	// from exactly these circles.
	Circles []coil.Circle
	Coils   []*coil.Coil

	// Originals is the pre-optimization snapshot the freedom box is
	// measured against.
	Originals []coil.Circle

	// Static coils are fixed prior neighbors that contribute to the
	// objective but are never moved.
	StaticCircles []coil.Circle
	StaticCoils   []*coil.Coil

	// CloseCutoff gates which pairs enter the objective.
	CloseCutoff float64

	CenterFreedom float64
	RadiusFreedom float64

	Iteration  int
	Iterations int
}

// Report summarizes one Update for snapshot tracking.
type Report struct {
	Objective  float64
	ClosePairs int
}

// Method is one layout optimization strategy.
type Method interface {
	// Update consumes the realized layout in st and returns the
	// circle parameters for the next iteration.
	Update(st *State) ([]coil.Circle, Report, error)
}

// Seeder is implemented by methods that can invent circle parameters
// from the bare surface when the caller supplies none.
type Seeder interface {
	Seed(surf *surface.Surface) ([]coil.Circle, error)
}

// DefaultCloseCutoff is the pair-inclusion ratio: two circles couple
// in the objective when center distance over summed radii falls below
// it.
const DefaultCloseCutoff = 1.1
