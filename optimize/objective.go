package optimize

import (
	"math"

	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// objectiveScale keeps the squared-coupling sums in a numerically
// comfortable range; mutual inductances between decoupled loops are
// tiny.
const objectiveScale = 1e6

// isClose reports whether two circles are close enough to couple in
// the objective: center separation relative to combined radii below
// the cutoff.
//
// Closeness is always evaluated on the circle parameters that produced
// the current realized layout, before any update is applied. This
// lagged scheme is deliberate: the gradient applies to the state that
// generated it. Reordering closeness and update changes convergence.
func isClose(a, b coil.Circle, cutoff float64) bool {
	return a.Center.Sub(b.Center).Len()/(a.Radius+b.Radius) < cutoff
}

// pairKey identifies one coupled pair; static neighbors are encoded
// with the static flag so (i, j) never collides between the two sets.
type pairKey struct {
	i, j   int
	static bool
}

// closePairs lists every coupled pair for the current layout: mobile
// pairs (i < j) and mobile-static pairs.
func closePairs(st *State) []pairKey {
	var pairs []pairKey
	for i := range st.Circles {
		for j := i + 1; j < len(st.Circles); j++ {
			if isClose(st.Circles[i], st.Circles[j], st.CloseCutoff) {
				pairs = append(pairs, pairKey{i: i, j: j})
			}
		}
		for j := range st.StaticCircles {
			if isClose(st.Circles[i], st.StaticCircles[j], st.CloseCutoff) {
				pairs = append(pairs, pairKey{i: i, j: j, static: true})
			}
		}
	}
	return pairs
}

// objective accumulates the coupling objective over the given pairs:
// (mutual)² · scale / (selfL_i · selfL_j).
func objective(st *State, pairs []pairKey) float64 {
	selfs := selfInductances(st)
	staticSelfs := make([]float64, len(st.StaticCoils))
	for j, c := range st.StaticCoils {
		staticSelfs[j] = st.Oracle.Self(c)
	}

	sum := 0.0
	for _, p := range pairs {
		var other *coil.Coil
		var otherSelf float64
		if p.static {
			other = st.StaticCoils[p.j]
			otherSelf = staticSelfs[p.j]
		} else {
			other = st.Coils[p.j]
			otherSelf = selfs[p.j]
		}
		m := st.Oracle.Mutual(st.Coils[p.i], other)
		if selfs[p.i] == 0 || otherSelf == 0 {
			continue
		}
		sum += m * m * objectiveScale / (selfs[p.i] * otherSelf)
	}
	return sum
}

func selfInductances(st *State) []float64 {
	selfs := make([]float64, len(st.Coils))
	for i, c := range st.Coils {
		selfs[i] = st.Oracle.Self(c)
	}
	return selfs
}

// gradients holds the per-circle objective gradients for one
// iteration, with the center component already projected onto the
// local surface tangent plane.
type gradients struct {
	center []mgl64.Vec3
	radius []float64
}

// computeGradients differentiates the objective for every mobile
// circle over the given pairs, using the oracle's analytic partials.
// Self-inductances are treated as constants of the differentiation;
// only the mutual terms move.
func computeGradients(st *State, pairs []pairKey) gradients {
	g := gradients{
		center: make([]mgl64.Vec3, len(st.Circles)),
		radius: make([]float64, len(st.Circles)),
	}
	selfs := selfInductances(st)
	staticSelfs := make([]float64, len(st.StaticCoils))
	for j, c := range st.StaticCoils {
		staticSelfs[j] = st.Oracle.Self(c)
	}

	accumulate := func(i int, other *coil.Coil, otherSelf float64) {
		if selfs[i] == 0 || otherSelf == 0 {
			return
		}
		m, grad, dRadius := st.Oracle.MutualGradient(st.Coils[i], other)
		// d/dx of m²·scale/(Li·Lj) = 2m·scale/(Li·Lj) · dm/dx
		factor := 2 * m * objectiveScale / (selfs[i] * otherSelf)
		g.center[i] = g.center[i].Add(grad.Mul(factor))
		g.radius[i] += dRadius * factor
	}

	for _, p := range pairs {
		if p.static {
			accumulate(p.i, st.StaticCoils[p.j], staticSelfs[p.j])
			continue
		}
		accumulate(p.i, st.Coils[p.j], selfs[p.j])
		accumulate(p.j, st.Coils[p.i], selfs[p.i])
	}

	// Keep center gradients in the surface: reject the component
	// along the local coil normal so steps slide along the mesh.
	for i := range g.center {
		normal := st.Surf.NormalAt(st.Circles[i].Center)
		if normal.Len() > 1e-12 {
			g.center[i] = geom.Reject(g.center[i], normal)
		}
	}
	return g
}

// couplingFactor is the dimensionless normalized mutual inductance
// used by the heuristic strategy.
func couplingFactor(st *State, a, b *coil.Coil) float64 {
	la, lb := st.Oracle.Self(a), st.Oracle.Self(b)
	if la <= 0 || lb <= 0 {
		return 0
	}
	return st.Oracle.Mutual(a, b) / math.Sqrt(la*lb)
}
