package optimize

import (
	"fmt"

	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/diag"
	"github.com/emwerks/coilplan/geom"
)

// symmetryDriftTolerance is how far a mirrored pair may drift before a
// diagnostic is published. Re-averaging happens regardless.
const symmetryDriftTolerance = 1e-6

// enforceSymmetry restores exact mirror symmetry in place after an
// update step. Circles flagged OnSymmetryPlane are re-projected onto
// the plane and snapped back to the surface. The remaining circles
// split by plane side and pair up in index order; each pair is
// replaced by the exact average of the positive circle and the
// reflected negative circle.
func enforceSymmetry(st *State, circles []coil.Circle, plane geom.Plane) error {
	var pos, neg []int
	for i, c := range circles {
		if c.OnSymmetryPlane {
			circles[i].Center = st.Surf.Snap(plane.Project(c.Center))
			continue
		}
		if plane.SignedDistance(c.Center) >= 0 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	if len(pos) != len(neg) {
		return fmt.Errorf("optimize: symmetry plane splits circles %d/%d; sides must pair up",
			len(pos), len(neg))
	}

	for k := range pos {
		pi, ni := pos[k], neg[k]
		mirrored := plane.ReflectPoint(circles[ni].Center)

		drift := circles[pi].Center.Sub(mirrored).Len()
		if drift > symmetryDriftTolerance {
			st.Sink.Publish(diag.SymmetryDriftEvent{Positive: pi, Negative: ni, Drift: drift})
		}

		mean := circles[pi].Center.Add(mirrored).Mul(0.5)
		radius := (circles[pi].Radius + circles[ni].Radius) / 2

		circles[pi].Center = st.Surf.Snap(mean)
		circles[ni].Center = st.Surf.Snap(plane.ReflectPoint(circles[pi].Center))
		circles[pi].Radius = radius
		circles[ni].Radius = radius
	}
	return nil
}
