package optimize

import (
	"fmt"
	"math"

	"github.com/emwerks/coilplan/coil"
)

// Gradient is the plain gradient-descent strategy: the same gradient
// source as Adam but a deterministic exponentially decaying step size,
// and center and radius updated in two separate passes per iteration
// rather than jointly.
type Gradient struct {
	StepSize float64
	// HalfLife is the number of iterations after which the step size
	// has halved.
	HalfLife float64
}

func NewGradient(stepSize float64) *Gradient {
	return &Gradient{StepSize: stepSize, HalfLife: 20}
}

func (g *Gradient) Update(st *State) ([]coil.Circle, Report, error) {
	if len(st.Coils) != len(st.Circles) {
		return nil, Report{}, fmt.Errorf("optimize: %d coils realized for %d circles", len(st.Coils), len(st.Circles))
	}

	pairs := closePairs(st)
	grads := computeGradients(st, pairs)
	obj := objective(st, pairs)

	step := g.StepSize * math.Exp2(-float64(st.Iteration)/g.HalfLife)

	// Position pass.
	out := make([]coil.Circle, len(st.Circles))
	for i, c := range st.Circles {
		c.Center = c.Center.Sub(grads.center[i].Mul(step))
		out[i] = finishStep(st, i, c)
	}

	// Radius pass, applied on the already-moved circles but with the
	// gradients evaluated at the start of the iteration.
	for i := range out {
		c := out[i]
		c.Radius -= grads.radius[i] * step
		out[i] = finishStep(st, i, c)
	}

	return out, Report{Objective: obj, ClosePairs: len(pairs)}, nil
}
