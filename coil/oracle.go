package coil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Inductance is the oracle the optimizers consult for coupling. It is
// a pure function of coil geometry; the layout code never looks inside
// it, so a full-field solver and the analytic stand-in below are
// interchangeable.
type Inductance interface {
	// Self returns the self-inductance of a coil.
	Self(c *Coil) float64

	// Mutual returns the mutual inductance between two coils.
	Mutual(a, b *Coil) float64

	// MutualGradient returns the mutual inductance between a and b
	// together with its partial derivatives with respect to a's center
	// position and a's radius.
	MutualGradient(a, b *Coil) (m float64, grad mgl64.Vec3, dRadius float64)
}

// mu0 is the vacuum permeability in H/m.
const mu0 = 4 * math.Pi * 1e-7

// LoopOracle is an analytic inductance model for circular loops: the
// textbook thin-wire self-inductance formula and a dipole-coupling
// approximation for mutual inductance, softened so coincident centers
// stay finite. It exists so layouts can be optimized end to end
// without an external field solver; swap in a real solver for
// quantitative results.
type LoopOracle struct{}

func (LoopOracle) Self(c *Coil) float64 {
	r := c.MeanRadius()
	a := c.WireRadius
	if r <= 0 || a <= 0 || r <= a {
		return 0
	}
	return mu0 * r * (math.Log(8*r/a) - 2)
}

func (LoopOracle) Mutual(a, b *Coil) float64 {
	m, _, _ := dipoleMutual(a.Centroid(), a.MeanRadius(), b.Centroid(), b.MeanRadius())
	return m
}

func (LoopOracle) MutualGradient(a, b *Coil) (float64, mgl64.Vec3, float64) {
	return dipoleMutual(a.Centroid(), a.MeanRadius(), b.Centroid(), b.MeanRadius())
}

// dipoleMutual evaluates M = (μ0 π/2) ra² rb² S^(-3/2) with
// S = d² + ra² + rb², plus its gradient with respect to ca and ra.
// The ra²+rb² terms in S regularize the point-dipole 1/d³ law at
// small separations.
func dipoleMutual(ca mgl64.Vec3, ra float64, cb mgl64.Vec3, rb float64) (float64, mgl64.Vec3, float64) {
	k := mu0 * math.Pi / 2
	sep := ca.Sub(cb)
	d2 := sep.Dot(sep)
	s := d2 + ra*ra + rb*rb
	if s <= 0 {
		return 0, mgl64.Vec3{}, 0
	}

	s32 := math.Pow(s, 1.5)
	s52 := s32 * s
	m := k * ra * ra * rb * rb / s32

	// dM/d(ca): chain rule through d² = |ca-cb|².
	grad := sep.Mul(-3 * k * ra * ra * rb * rb / s52)

	// dM/d(ra): product rule over ra² and S^(-3/2).
	dRadius := k * rb * rb * ra * (2*s - 3*ra*ra) / s52

	return m, grad, dRadius
}
