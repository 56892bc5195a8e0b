package coil

import (
	"fmt"
	"math"
	"sort"

	"github.com/emwerks/coilplan/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// edgeRatioThreshold flags a transition between consecutive
	// theta-sorted points as lying in an "edge" when |dPhi/dTheta|
	// exceeds it. Edges mark mesh seams or sharp curvature where the
	// band points fall off a clean ring.
	edgeRatioThreshold = 4.0

	// edgePadding widens each detected edge span by this many ring
	// indices on both sides before reordering.
	edgePadding = 2

	// smoothingPasses is the number of 3-point circular-mean passes
	// applied to theta, phi and normals.
	smoothingPasses = 8

	// preShiftMinCos skips the radial pre-shift for points whose
	// direction is too oblique to the local tangent; below this cosine
	// the shift distance blows up toward infinity.
	preShiftMinCos = 0.1

	// axisParallelCos switches the zero-theta reference from +Z to +X
	// when the coil normal is nearly parallel to +Z.
	axisParallelCos = 0.99
)

// angleFormat is a band point expressed in the coil's angular frame:
// theta the signed in-plane angle from the reference axis, phi the
// angle off the coil normal, id the index into the input lists.
type angleFormat struct {
	theta, phi float64
	id         int
}

// CleanByAngle turns an unordered point cloud approximately on the
// sphere/surface intersection into a single closed, smooth ring.
//
// The pipeline: optional tangential pre-shift onto the exact radius,
// conversion to (theta, phi) in the coil frame, theta sort, edge
// detection and local reordering where the cloud is tangled, repeated
// 3-point smoothing with wrap-safe angle averaging, and finally
// re-projection onto the ideal sphere in the coil's own orthonormal
// frame.
//
// normal must be non-zero; points and pointNormals must be parallel
// lists. The returned coil has count equal to the input count; no
// points are dropped.
func CleanByAngle(center, normal mgl64.Vec3, radius, wireRadius float64, points, pointNormals []mgl64.Vec3, preShift bool) (*Coil, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("coil: %w (got %d)", ErrTooFewPoints, len(points))
	}
	if len(points) != len(pointNormals) {
		return nil, fmt.Errorf("coil: %w (%d points, %d normals)",
			ErrLengthMismatch, len(points), len(pointNormals))
	}
	n := normal.Normalize()

	work := make([]mgl64.Vec3, len(points))
	copy(work, points)
	if preShift {
		preShiftToRadius(work, pointNormals, center, radius)
	}

	zeroTheta := referenceAxis(n)

	angles, err := toAngles(work, center, n, zeroTheta)
	if err != nil {
		return nil, err
	}
	sort.Slice(angles, func(i, j int) bool { return angles[i].theta < angles[j].theta })

	spans, err := detectEdges(angles)
	if err != nil {
		return nil, err
	}
	reorderEdgeSpans(angles, spans)

	seqNormals := make([]mgl64.Vec3, len(angles))
	for i, a := range angles {
		seqNormals[i] = pointNormals[a.id]
	}
	smooth(angles, seqNormals)

	return reconstruct(angles, seqNormals, center, n, zeroTheta, radius, wireRadius)
}

// preShiftToRadius moves each point along its local surface tangent so
// its distance to center becomes exactly radius. Points whose
// center-to-point direction is near-perpendicular to the tangent are
// left alone; dividing by their tiny cosine would fling them off the
// mesh.
func preShiftToRadius(points []mgl64.Vec3, pointNormals []mgl64.Vec3, center mgl64.Vec3, radius float64) {
	for i := range points {
		dir := points[i].Sub(center)
		dist := dir.Len()
		if dist < 1e-12 {
			continue
		}
		tangent := geom.Reject(dir, pointNormals[i])
		tl := tangent.Len()
		if tl < 1e-12 {
			continue
		}
		tangent = tangent.Mul(1 / tl)

		cosA := dir.Mul(1 / dist).Dot(tangent)
		if math.Abs(cosA) < preShiftMinCos {
			continue
		}
		points[i] = points[i].Add(tangent.Mul((radius - dist) / cosA))
	}
}

// referenceAxis picks the in-plane zero-theta direction: global +Z
// projected into the coil plane, or +X when the coil normal is nearly
// parallel to +Z.
func referenceAxis(n mgl64.Vec3) mgl64.Vec3 {
	axis := mgl64.Vec3{0, 0, 1}
	if math.Abs(n.Dot(axis)) > axisParallelCos {
		axis = mgl64.Vec3{1, 0, 0}
	}
	return geom.Reject(axis, n).Normalize()
}

// toAngles converts points to (theta, phi) in the coil frame. Any NaN
// angle means a point coincides with the center or sits exactly on the
// coil axis, leaving the minimum-angle start undefined.
func toAngles(points []mgl64.Vec3, center, n, zeroTheta mgl64.Vec3) ([]angleFormat, error) {
	angles := make([]angleFormat, len(points))
	for i, p := range points {
		v := p.Sub(center)
		inPlane := geom.Reject(v, n)
		theta := geom.SignedAngle(zeroTheta, inPlane, n)
		phi := geom.Angle(n, v)
		if math.IsNaN(theta) || math.IsNaN(phi) {
			return nil, fmt.Errorf("coil: %w: point %d at %v degenerate in frame (center=%v)",
				ErrNoMinimumAngle, i, p, center)
		}
		angles[i] = angleFormat{theta: theta, phi: phi, id: i}
	}
	return angles, nil
}

// edgeSpan is an inclusive run [start, end] of ring indices flagged as
// inside a detected edge, in cyclic order.
type edgeSpan struct {
	start, end int
}

// detectEdges walks the theta-sorted sequence cyclically and flags
// each transition whose |dPhi/dTheta| slope exceeds the ratio
// threshold, then dilates the flags by the padding buffer and groups
// them into maximal cyclic runs. A run covering the entire ring means
// theta never advances cleanly through its bins.
func detectEdges(angles []angleFormat) ([]edgeSpan, error) {
	count := len(angles)
	cyc := Cyclic(count)

	flagged := make([]bool, count)
	for i := range angles {
		j := cyc.Next(i)
		dTheta := angles[j].theta - angles[i].theta
		if j == 0 {
			dTheta += 2 * math.Pi
		}
		dPhi := angles[j].phi - angles[i].phi
		if math.Abs(dTheta) < 1e-12 || math.Abs(dPhi/dTheta) > edgeRatioThreshold {
			flagged[i] = true
			flagged[j] = true
		}
	}

	padded := make([]bool, count)
	for i, f := range flagged {
		if !f {
			continue
		}
		for d := -edgePadding; d <= edgePadding; d++ {
			padded[cyc.Norm(i+d)] = true
		}
	}

	// Group cyclic runs. Start scanning from an unflagged index so a
	// wraparound run is collected whole instead of split at index 0.
	first := -1
	for i, f := range padded {
		if !f {
			first = i
			break
		}
	}
	if first == -1 {
		return nil, fmt.Errorf("coil: %w: every transition exceeds ratio %g",
			ErrAngleOverrun, edgeRatioThreshold)
	}

	var spans []edgeSpan
	open := -1
	for k := 0; k < count; k++ {
		i := cyc.Norm(first + k)
		if padded[i] && open == -1 {
			open = i
		}
		if !padded[i] && open != -1 {
			spans = append(spans, edgeSpan{start: open, end: cyc.Prev(i)})
			open = -1
		}
	}
	if open != -1 {
		spans = append(spans, edgeSpan{start: open, end: cyc.Prev(first)})
	}
	return spans, nil
}

// reorderEdgeSpans locally re-sorts the points inside each edge span
// by L1 distance in (theta, phi) space to an anchor just outside the
// span, untangling mis-ordered points without touching the globally
// sorted majority.
func reorderEdgeSpans(angles []angleFormat, spans []edgeSpan) {
	cyc := Cyclic(len(angles))
	for _, span := range spans {
		anchor := angles[cyc.Prev(span.start)]
		idx := cyc.Slice(span.start, span.end)

		local := make([]angleFormat, len(idx))
		for k, i := range idx {
			local[k] = angles[i]
		}
		sort.Slice(local, func(a, b int) bool {
			return anchorDist(local[a], anchor) < anchorDist(local[b], anchor)
		})
		for k, i := range idx {
			angles[i] = local[k]
		}
	}
}

func anchorDist(a, anchor angleFormat) float64 {
	return math.Abs(wrapAngle(a.theta-anchor.theta)) + math.Abs(a.phi-anchor.phi)
}

// wrapAngle maps an angle difference into (-π, π].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// smooth applies the 3-point circular-mean passes to theta, phi and
// the per-point normals. Neighbor thetas are unwrapped to within π of
// the center value before averaging so the 2π discontinuity never
// bleeds into the mean.
func smooth(angles []angleFormat, normals []mgl64.Vec3) {
	count := len(angles)
	cyc := Cyclic(count)
	nextAngles := make([]angleFormat, count)
	nextNormals := make([]mgl64.Vec3, count)

	for pass := 0; pass < smoothingPasses; pass++ {
		for i := range angles {
			p, q := cyc.Prev(i), cyc.Next(i)

			t := angles[i].theta
			mean := (unwrapNear(t, angles[p].theta) + t + unwrapNear(t, angles[q].theta)) / 3
			nextAngles[i] = angleFormat{
				theta: wrapAngle(mean),
				phi:   (angles[p].phi + angles[i].phi + angles[q].phi) / 3,
				id:    angles[i].id,
			}

			nsum := normals[p].Add(normals[i]).Add(normals[q])
			if l := nsum.Len(); l > 1e-12 {
				nextNormals[i] = nsum.Mul(1 / l)
			} else {
				nextNormals[i] = normals[i]
			}
		}
		copy(angles, nextAngles)
		copy(normals, nextNormals)
	}
}

// unwrapNear shifts v by whole turns until it lies within π of ref.
func unwrapNear(ref, v float64) float64 {
	for v-ref > math.Pi {
		v -= 2 * math.Pi
	}
	for v-ref < -math.Pi {
		v += 2 * math.Pi
	}
	return v
}

// reconstruct re-projects each (theta, phi) onto the ideal sphere of
// the requested radius about center, in the coil's own orthonormal
// frame. A NaN here means the frame was degenerate and is fatal.
func reconstruct(angles []angleFormat, normals []mgl64.Vec3, center, n, zeroTheta mgl64.Vec3, radius, wireRadius float64) (*Coil, error) {
	e1 := zeroTheta
	e2 := n.Cross(e1)

	verts := make([]Vertex, len(angles))
	for i, a := range angles {
		sinPhi := math.Sin(a.phi)
		dir := e1.Mul(sinPhi * math.Cos(a.theta)).
			Add(e2.Mul(sinPhi * math.Sin(a.theta))).
			Add(n.Mul(math.Cos(a.phi)))
		p := center.Add(dir.Mul(radius))
		if geom.HasNaN(p) {
			return nil, &ReconstructError{
				Index: i, Center: center, Normal: n, Theta: a.theta, Phi: a.phi,
			}
		}
		verts[i] = Vertex{Point: p, SurfaceNormal: normals[i], WireNormal: normals[i]}
	}
	return &Coil{WireRadius: wireRadius, Vertices: verts}, nil
}
