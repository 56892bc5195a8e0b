package optimize

import (
	"fmt"
	"math"

	"github.com/emwerks/coilplan/coil"
	"github.com/go-gl/mathgl/mgl64"
)

// Alternating is the heuristic strategy: no gradient analytics, just
// the scalar coupling factor of each close pair used directly as a
// repulsive force along the center line. The force is split between
// the two coils in inverse proportion to their current radial error,
// so the coil already furthest from its requested radius moves less.
// Position and radius passes alternate between iterations, with a
// linearly decaying step.
type Alternating struct {
	StepSize float64
}

func NewAlternating(stepSize float64) *Alternating {
	return &Alternating{StepSize: stepSize}
}

func (al *Alternating) Update(st *State) ([]coil.Circle, Report, error) {
	if len(st.Coils) != len(st.Circles) {
		return nil, Report{}, fmt.Errorf("optimize: %d coils realized for %d circles", len(st.Coils), len(st.Circles))
	}

	pairs := closePairs(st)
	obj := objective(st, pairs)

	decay := 1.0
	if st.Iterations > 0 {
		decay = 1 - float64(st.Iteration)/float64(st.Iterations)
	}
	step := al.StepSize * decay

	out := make([]coil.Circle, len(st.Circles))
	copy(out, st.Circles)

	if st.Iteration%2 == 0 {
		al.positionPass(st, pairs, out, step)
	} else {
		al.radiusPass(st, pairs, out, step)
	}

	for i := range out {
		out[i] = finishStep(st, i, out[i])
	}
	return out, Report{Objective: obj, ClosePairs: len(pairs)}, nil
}

// positionPass pushes the coils of each close pair apart along their
// center line, weighted by shared load.
func (al *Alternating) positionPass(st *State, pairs []pairKey, out []coil.Circle, step float64) {
	forces := make([]mgl64.Vec3, len(out))
	for _, p := range pairs {
		var otherCircle coil.Circle
		var otherCoil *coil.Coil
		if p.static {
			otherCircle = st.StaticCircles[p.j]
			otherCoil = st.StaticCoils[p.j]
		} else {
			otherCircle = st.Circles[p.j]
			otherCoil = st.Coils[p.j]
		}

		k := math.Abs(couplingFactor(st, st.Coils[p.i], otherCoil))
		if k == 0 {
			continue
		}
		axis := st.Circles[p.i].Center.Sub(otherCircle.Center)
		dist := axis.Len()
		if dist < 1e-12 {
			continue
		}
		axis = axis.Mul(1 / dist)
		// The force magnitude scales with the pair's combined radius
		// so identical layouts behave the same at any physical scale.
		force := k * (st.Circles[p.i].Radius + otherCircle.Radius)

		wi, wj := loadSplit(st, p)
		forces[p.i] = forces[p.i].Add(axis.Mul(force * wi))
		if !p.static {
			forces[p.j] = forces[p.j].Sub(axis.Mul(force * wj))
		}
	}
	for i := range out {
		out[i].Center = out[i].Center.Add(forces[i].Mul(step))
	}
}

// radiusPass shrinks coupled coils, again sharing the correction by
// inverse radial error.
func (al *Alternating) radiusPass(st *State, pairs []pairKey, out []coil.Circle, step float64) {
	for _, p := range pairs {
		var otherCoil *coil.Coil
		if p.static {
			otherCoil = st.StaticCoils[p.j]
		} else {
			otherCoil = st.Coils[p.j]
		}
		k := math.Abs(couplingFactor(st, st.Coils[p.i], otherCoil))
		if k == 0 {
			continue
		}

		wi, wj := loadSplit(st, p)
		out[p.i].Radius -= k * out[p.i].Radius * wi * step
		if !p.static {
			out[p.j].Radius -= k * out[p.j].Radius * wj * step
		}
	}
}

// loadSplit divides a pair's correction between its two coils in
// inverse proportion to their radial error (realized mean radius vs
// requested radius): the coil already forced furthest off its spec
// absorbs less. Static neighbors absorb nothing; their share is zero
// and the mobile coil takes the full force.
func loadSplit(st *State, p pairKey) (float64, float64) {
	if p.static {
		return 1, 0
	}
	ei := radialError(st.Coils[p.i], st.Circles[p.i])
	ej := radialError(st.Coils[p.j], st.Circles[p.j])
	return ej / (ei + ej), ei / (ei + ej)
}

func radialError(c *coil.Coil, spec coil.Circle) float64 {
	const floor = 1e-9
	return math.Max(floor, math.Abs(c.MeanRadius()-spec.Radius))
}
