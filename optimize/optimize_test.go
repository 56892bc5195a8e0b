package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/geom"
	"github.com/emwerks/coilplan/internal/meshtest"
	"github.com/go-gl/mathgl/mgl64"
)

// ringFor realizes a circle as a flat n-gon ring with +Z normals, the
// shape a flat grid produces.
func ringFor(c coil.Circle, wireRadius float64, n int) *coil.Coil {
	up := mgl64.Vec3{0, 0, 1}
	verts := make([]coil.Vertex, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		p := c.Center.Add(mgl64.Vec3{c.Radius * math.Cos(a), c.Radius * math.Sin(a), 0})
		verts[i] = coil.Vertex{Point: p, SurfaceNormal: up, WireNormal: up}
	}
	return &coil.Coil{WireRadius: wireRadius, Vertices: verts}
}

func realizeAll(circles []coil.Circle, wireRadius float64) []*coil.Coil {
	coils := make([]*coil.Coil, len(circles))
	for i, c := range circles {
		coils[i] = ringFor(c, wireRadius, 36)
	}
	return coils
}

func flatState(circles []coil.Circle) *State {
	originals := make([]coil.Circle, len(circles))
	copy(originals, circles)
	return &State{
		Surf:          meshtest.Grid(21, 21, 1),
		Oracle:        coil.LoopOracle{},
		Circles:       circles,
		Coils:         realizeAll(circles, 0.1),
		Originals:     originals,
		CloseCutoff:   DefaultCloseCutoff,
		CenterFreedom: 1,
		RadiusFreedom: 0.5,
	}
}

func TestIsClose(t *testing.T) {
	a := coil.Circle{Center: mgl64.Vec3{0, 0, 0}, Radius: 2}
	b := coil.Circle{Center: mgl64.Vec3{4, 0, 0}, Radius: 2}
	assert.True(t, isClose(a, b, DefaultCloseCutoff), "ratio 1.0 is inside the cutoff")

	far := coil.Circle{Center: mgl64.Vec3{10, 0, 0}, Radius: 2}
	assert.False(t, isClose(a, far, DefaultCloseCutoff), "ratio 2.5 is outside the cutoff")
}

func TestClosePairsIncludesStatics(t *testing.T) {
	st := flatState([]coil.Circle{
		{Center: mgl64.Vec3{5, 10, 0}, Radius: 2},
		{Center: mgl64.Vec3{8, 10, 0}, Radius: 2},
	})
	st.StaticCircles = []coil.Circle{{Center: mgl64.Vec3{5, 13, 0}, Radius: 2}}
	st.StaticCoils = realizeAll(st.StaticCircles, 0.1)

	pairs := closePairs(st)
	require.Len(t, pairs, 3)

	statics := 0
	for _, p := range pairs {
		if p.static {
			statics++
		}
	}
	assert.Equal(t, 2, statics, "both mobile circles couple to the static neighbor")
}

func TestComputeGradientsPushApart(t *testing.T) {
	st := flatState([]coil.Circle{
		{Center: mgl64.Vec3{9, 10, 0}, Radius: 3},
		{Center: mgl64.Vec3{13, 10, 0}, Radius: 3},
	})
	pairs := closePairs(st)
	require.Len(t, pairs, 1)

	g := computeGradients(st, pairs)

	// Descending the gradient must separate the pair: the gradient at
	// circle 0 points toward circle 1 and vice versa.
	toOther := st.Circles[1].Center.Sub(st.Circles[0].Center)
	assert.Positive(t, g.center[0].Dot(toOther))
	assert.Positive(t, g.center[1].Dot(toOther.Mul(-1)))

	// Shrinking either radius reduces coupling.
	assert.Positive(t, g.radius[0])
	assert.Positive(t, g.radius[1])

	// On a flat patch the tangent projection kills any out-of-plane
	// component.
	assert.InDelta(t, 0, g.center[0].Z(), 1e-15)
}

func TestAdamDecouplesPair(t *testing.T) {
	circles := []coil.Circle{
		{Center: mgl64.Vec3{9, 10, 0}, Radius: 3},
		{Center: mgl64.Vec3{13, 10, 0}, Radius: 3},
	}
	st := flatState(circles)
	method := NewAdam(1)

	var first, last Report
	for iter := 0; iter < 40; iter++ {
		st.Iteration = iter
		st.Iterations = 40
		next, report, err := method.Update(st)
		require.NoError(t, err)
		if iter == 0 {
			first = report
			assert.Equal(t, 1, report.ClosePairs,
				"closeness is read off the parameters the layout was realized from")
		}
		last = report
		st.Circles = next
		st.Coils = realizeAll(next, 0.1)
	}

	assert.Less(t, last.Objective, first.Objective)
	sep := st.Circles[1].Center.Sub(st.Circles[0].Center).Len()
	assert.Greater(t, sep, 4.0, "the pair should have moved apart")
	for i, c := range st.Circles {
		disp := c.Center.Sub(st.Originals[i].Center).Len()
		assert.LessOrEqual(t, disp, st.CenterFreedom*st.Originals[i].Radius+1e-9)
	}
}

func TestZeroFreedomPinsCircles(t *testing.T) {
	cases := []struct {
		name    string
		circles []coil.Circle
	}{
		{"vertex centers", []coil.Circle{
			{Center: mgl64.Vec3{9, 10, 0}, Radius: 3},
			{Center: mgl64.Vec3{12, 10, 0}, Radius: 3},
		}},
		// On the surface but interior to a face: a snap to the nearest
		// vertex would move these even though the clamps held them.
		{"interior-of-face centers", []coil.Circle{
			{Center: mgl64.Vec3{9.5, 10.25, 0}, Radius: 3},
			{Center: mgl64.Vec3{12.5, 10.25, 0}, Radius: 3},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, method := range []Method{NewAdam(1), NewGradient(1), NewAlternating(5)} {
				st := flatState(tc.circles)
				st.CenterFreedom = 0
				st.RadiusFreedom = 0

				// Several iterations: the property must survive repeated
				// clamp-and-snap tails, not just the first step.
				for iter := 0; iter < 3; iter++ {
					st.Iteration = iter
					out, _, err := method.Update(st)
					require.NoError(t, err)
					for i := range out {
						assert.Equal(t, st.Originals[i].Center, out[i].Center)
						assert.Equal(t, st.Originals[i].Radius, out[i].Radius)
					}
					st.Circles = out
					st.Coils = realizeAll(out, 0.1)
				}
			}
		})
	}
}

func TestAdamReusedAcrossRuns(t *testing.T) {
	method := NewAdam(1)

	st := flatState([]coil.Circle{
		{Center: mgl64.Vec3{9, 10, 0}, Radius: 3},
		{Center: mgl64.Vec3{13, 10, 0}, Radius: 3},
	})
	_, _, err := method.Update(st)
	require.NoError(t, err)

	// A second run with a different circle count gets fresh moments.
	st = flatState([]coil.Circle{
		{Center: mgl64.Vec3{6, 6, 0}, Radius: 2},
		{Center: mgl64.Vec3{9, 6, 0}, Radius: 2},
		{Center: mgl64.Vec3{12, 6, 0}, Radius: 2},
	})
	out, _, err := method.Update(st)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestAdamSymmetry(t *testing.T) {
	plane := geomPlaneX(10)
	circles := []coil.Circle{
		{Center: mgl64.Vec3{8, 10, 0}, Radius: 2},
		{Center: mgl64.Vec3{12, 10, 0}, Radius: 2},
		{Center: mgl64.Vec3{10, 6, 0}, Radius: 2, OnSymmetryPlane: true},
	}
	st := flatState(circles)
	method := NewAdam(1)
	method.SymmetryPlane = &plane

	for iter := 0; iter < 10; iter++ {
		st.Iteration = iter
		next, _, err := method.Update(st)
		require.NoError(t, err)
		st.Circles = next
		st.Coils = realizeAll(next, 0.1)
	}

	dp := plane.SignedDistance(st.Circles[0].Center)
	dn := plane.SignedDistance(st.Circles[1].Center)
	assert.InDelta(t, dp, -dn, 1e-9, "mirrored pair must sit at opposite signed distances")
	assert.Equal(t, st.Circles[0].Radius, st.Circles[1].Radius)
	assert.InDelta(t, 0, plane.SignedDistance(st.Circles[2].Center), 1e-9,
		"pinned circle stays on the plane")
}

func TestEnforceSymmetryUnpairedSides(t *testing.T) {
	plane := geomPlaneX(10)
	st := flatState([]coil.Circle{{Center: mgl64.Vec3{7, 10, 0}, Radius: 2}})
	err := enforceSymmetry(st, st.Circles, plane)
	assert.Error(t, err)
}

func TestApplyBoundary(t *testing.T) {
	st := flatState(nil)

	t.Run("interior center untouched", func(t *testing.T) {
		p, on := applyBoundary(st, 0, mgl64.Vec3{10, 10, 0}, 3)
		assert.Equal(t, mgl64.Vec3{10, 10, 0}, p)
		assert.False(t, on)
	})

	t.Run("near boundary pushed inward", func(t *testing.T) {
		p, on := applyBoundary(st, 0, mgl64.Vec3{1, 10, 0}, 3)
		assert.True(t, on)
		_, bd := st.Surf.NearestBoundaryVertex(p)
		assert.GreaterOrEqual(t, bd, 3.0-1e-9)
	})
}

func TestKMeansSeed(t *testing.T) {
	t.Run("closed surface", func(t *testing.T) {
		km := NewKMeans(4, 1)
		circles, err := km.Seed(meshtest.Sphere(10, 8, 12))
		require.NoError(t, err)
		require.Len(t, circles, 4)

		for i, c := range circles {
			assert.Positive(t, c.Radius)
			for j := i + 1; j < len(circles); j++ {
				assert.Greater(t, c.Center.Sub(circles[j].Center).Len(), 1e-9,
					"seeded centers must be distinct")
			}
		}
	})

	t.Run("invalid counts", func(t *testing.T) {
		_, err := NewKMeans(0, 1).Seed(meshtest.Grid(5, 5, 1))
		assert.Error(t, err)
		_, err = NewKMeans(100, 1).Seed(meshtest.Grid(5, 5, 1))
		assert.Error(t, err)
	})
}

func TestAlternatingPositionPass(t *testing.T) {
	circles := []coil.Circle{
		{Center: mgl64.Vec3{9, 10, 0}, Radius: 2},
		{Center: mgl64.Vec3{12, 10, 0}, Radius: 2},
	}
	st := flatState(circles)
	method := NewAlternating(8)

	before := circles[1].Center.Sub(circles[0].Center).Len()
	out, report, err := method.Update(st)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ClosePairs)

	after := out[1].Center.Sub(out[0].Center).Len()
	assert.Greater(t, after, before, "even iterations push coupled centers apart")
}

func TestAlternatingRadiusPass(t *testing.T) {
	circles := []coil.Circle{
		{Center: mgl64.Vec3{9, 10, 0}, Radius: 2},
		{Center: mgl64.Vec3{12, 10, 0}, Radius: 2},
	}
	st := flatState(circles)
	st.Iteration = 1
	st.Iterations = 10

	out, _, err := NewAlternating(8).Update(st)
	require.NoError(t, err)
	for i := range out {
		assert.Less(t, out[i].Radius, circles[i].Radius, "odd iterations shrink coupled radii")
		assert.GreaterOrEqual(t, out[i].Radius, circles[i].Radius*(1-st.RadiusFreedom)-1e-12)
	}
}

// geomPlaneX is the mirror plane x = c.
func geomPlaneX(c float64) geom.Plane {
	return geom.PlaneFromPointNormal(mgl64.Vec3{c, 0, 0}, mgl64.Vec3{1, 0, 0})
}
