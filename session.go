// Package coilplan computes decoupled arrangements of circular coil
// loops on a triangulated 3D surface. A Session drives the loop:
// realize circle parameters into rings on the surface, resolve wire
// collisions, let an optimization strategy update the parameters, and
// keep the best layout seen.
package coilplan

import (
	"fmt"
	"math"

	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/diag"
	"github.com/emwerks/coilplan/mousehole"
	"github.com/emwerks/coilplan/optimize"
	"github.com/emwerks/coilplan/surface"
)

const DEFAULT_WORKERS = 1

// Layout is the finished arrangement handed to downstream stages: the
// realized coils in circle order plus the parameters that produced
// them. Downstream consumers treat this strictly as data.
type Layout struct {
	Circles []coil.Circle `json:"circles"`
	Coils   []*coil.Coil  `json:"coils"`
}

// Session owns one optimization run. The Surface is shared read-only
// across all circles; circle parameter slices are replaced wholesale
// each iteration.
type Session struct {
	Surf   *surface.Surface
	Method optimize.Method
	Oracle coil.Inductance
	Sink   *diag.Sink

	// Circles are the initial coil specifications. May be empty when
	// Method can seed its own (k-means).
	Circles []coil.Circle

	// Static is an optional prior layout whose coils act as fixed
	// neighbors in the objective.
	Static *Layout

	WireRadius float64
	// Epsilon is the sphere-band tolerance; zero means derive it from
	// the mesh resolution.
	Epsilon       float64
	Clearance     float64
	CloseCutoff   float64
	CenterFreedom float64
	RadiusFreedom float64
	Iterations    int
	Workers       int
}

// Run executes the configured number of iterations and returns the
// best layout seen, judged by RMS coupling over close pairs.
func (s *Session) Run() (*Layout, error) {
	if err := s.applyDefaults(); err != nil {
		return nil, err
	}

	circles := make([]coil.Circle, len(s.Circles))
	copy(circles, s.Circles)
	originals := make([]coil.Circle, len(circles))
	copy(originals, circles)

	var staticCircles []coil.Circle
	var staticCoils []*coil.Coil
	if s.Static != nil {
		staticCircles = s.Static.Circles
		staticCoils = s.Static.Coils
	}

	best := &Layout{}
	bestRMS := math.Inf(1)

	for it := 0; it < s.Iterations; it++ {
		coils, err := s.realize(circles)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", it, err)
		}
		resolved := mousehole.Resolve(coils, circles, s.Clearance, s.Sink)

		st := &optimize.State{
			Surf:          s.Surf,
			Oracle:        s.Oracle,
			Sink:          s.Sink,
			Circles:       circles,
			Coils:         resolved,
			Originals:     originals,
			StaticCircles: staticCircles,
			StaticCoils:   staticCoils,
			CloseCutoff:   s.CloseCutoff,
			CenterFreedom: s.CenterFreedom,
			RadiusFreedom: s.RadiusFreedom,
			Iteration:     it,
			Iterations:    s.Iterations,
		}
		next, report, err := s.Method.Update(st)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", it, err)
		}

		rms := 0.0
		if report.ClosePairs > 0 {
			rms = math.Sqrt(report.Objective / float64(report.ClosePairs))
		}
		if rms < bestRMS {
			bestRMS = rms
			best.Circles = circles
			best.Coils = resolved
		}

		s.Sink.Publish(diag.IterationEvent{
			Iteration: it, Objective: report.Objective, ClosePairs: report.ClosePairs,
		})
		s.Sink.Flush()

		circles = next
	}

	if best.Coils == nil {
		// Zero iterations: realize the inputs once so callers always
		// get a usable layout back.
		coils, err := s.realize(circles)
		if err != nil {
			return nil, err
		}
		best.Circles = circles
		best.Coils = mousehole.Resolve(coils, circles, s.Clearance, s.Sink)
	}
	return best, nil
}

func (s *Session) applyDefaults() error {
	if s.Surf == nil {
		return fmt.Errorf("coilplan: session needs a surface")
	}
	if s.Method == nil {
		return fmt.Errorf("coilplan: session needs a layout method")
	}
	if s.Oracle == nil {
		s.Oracle = coil.LoopOracle{}
	}
	if s.CloseCutoff == 0 {
		s.CloseCutoff = optimize.DefaultCloseCutoff
	}
	if s.Epsilon == 0 {
		s.Epsilon = coil.DefaultBandEpsilon(s.Surf)
	}
	s.Workers = max(DEFAULT_WORKERS, s.Workers)

	if len(s.Circles) == 0 {
		seeder, ok := s.Method.(optimize.Seeder)
		if !ok {
			return fmt.Errorf("coilplan: no circles given and method cannot seed its own")
		}
		circles, err := seeder.Seed(s.Surf)
		if err != nil {
			return err
		}
		s.Circles = circles
	}
	return nil
}
