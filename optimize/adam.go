package optimize

import (
	"fmt"
	"math"

	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// moment carries one circle's exponential moving averages across
// iterations: first and second moments of the center gradient
// (component-wise) and of the radius gradient, plus the decay
// accumulators used for bias correction.
type moment struct {
	centerM1 mgl64.Vec3
	centerM2 mgl64.Vec3
	radiusM1 float64
	radiusM2 float64
	beta1Acc float64
	beta2Acc float64
}

// Adam is the adaptive-moment layout strategy: per-circle gradients of
// the coupling objective drive a bias-corrected EMA step on center and
// radius jointly. Optionally keeps the layout mirror-symmetric about a
// plane.
type Adam struct {
	StepSize float64
	Beta1    float64
	Beta2    float64
	// Epsilon stabilizes the division by the second-moment estimate.
	Epsilon float64

	// SymmetryPlane, when set, partitions circles into plane-pinned,
	// positive-side and negative-side sets and enforces exact mirror
	// pairing after every step.
	SymmetryPlane *geom.Plane

	moments []*moment
}

// NewAdam returns an Adam strategy with the conventional decay rates.
func NewAdam(stepSize float64) *Adam {
	return &Adam{StepSize: stepSize, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8}
}

func (a *Adam) Update(st *State) ([]coil.Circle, Report, error) {
	if len(st.Coils) != len(st.Circles) {
		return nil, Report{}, fmt.Errorf("optimize: %d coils realized for %d circles", len(st.Coils), len(st.Circles))
	}
	// A changed circle count means a different run; stale moments from
	// the previous layout must not bleed into it.
	if len(a.moments) != len(st.Circles) {
		a.moments = make([]*moment, len(st.Circles))
		for i := range a.moments {
			a.moments[i] = &moment{beta1Acc: 1, beta2Acc: 1}
		}
	}

	pairs := closePairs(st)
	grads := computeGradients(st, pairs)
	obj := objective(st, pairs)

	out := make([]coil.Circle, len(st.Circles))
	for i, c := range st.Circles {
		centerStep, radiusStep := a.moments[i].step(grads.center[i], grads.radius[i], a)

		c.Center = c.Center.Sub(centerStep.Mul(a.StepSize))
		c.Radius -= radiusStep * a.StepSize
		out[i] = finishStep(st, i, c)
	}

	if a.SymmetryPlane != nil {
		if err := enforceSymmetry(st, out, *a.SymmetryPlane); err != nil {
			return nil, Report{}, err
		}
	}
	return out, Report{Objective: obj, ClosePairs: len(pairs)}, nil
}

// step folds a new gradient sample into the moving averages and
// returns the bias-corrected Adam step directions.
func (mo *moment) step(centerGrad mgl64.Vec3, radiusGrad float64, a *Adam) (mgl64.Vec3, float64) {
	mo.beta1Acc *= a.Beta1
	mo.beta2Acc *= a.Beta2

	mo.centerM1 = mo.centerM1.Mul(a.Beta1).Add(centerGrad.Mul(1 - a.Beta1))
	mo.radiusM1 = mo.radiusM1*a.Beta1 + radiusGrad*(1-a.Beta1)
	for k := 0; k < 3; k++ {
		mo.centerM2[k] = mo.centerM2[k]*a.Beta2 + centerGrad[k]*centerGrad[k]*(1-a.Beta2)
	}
	mo.radiusM2 = mo.radiusM2*a.Beta2 + radiusGrad*radiusGrad*(1-a.Beta2)

	c1 := 1 / (1 - mo.beta1Acc)
	c2 := 1 / (1 - mo.beta2Acc)

	var centerStep mgl64.Vec3
	for k := 0; k < 3; k++ {
		centerStep[k] = mo.centerM1[k] * c1 / (math.Sqrt(mo.centerM2[k]*c2) + a.Epsilon)
	}
	radiusStep := mo.radiusM1 * c1 / (math.Sqrt(mo.radiusM2*c2) + a.Epsilon)
	return centerStep, radiusStep
}
