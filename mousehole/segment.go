// Package mousehole resolves physical wire collisions between
// overlapping coil rings. Where one ring runs through a neighbor's
// wire, a smooth radial bulge (the "mousehole") is shaped into it so a
// tube swept along the ring clears the neighbor without
// discontinuities.
package mousehole

import (
	"math"
	"slices"

	"github.com/emwerks/coilplan/coil"
	"github.com/go-gl/mathgl/mgl64"
)

// nearFactor scales the flagging band: a ring index is considered
// overlapping when its distance to the neighbor's circle is within
// (wireRadiusA + wireRadiusB + clearance) * nearFactor.
const nearFactor = 2.0

// segmentPadding widens each detected segment by this many ring
// indices on both sides so the blend has room to return to zero.
const segmentPadding = 2

// Segment is a contiguous cyclic run [Start, End] of ring indices on
// one coil that overlaps neighboring coils' wires, after padding and
// merging. Crossings are arc-length offsets from the padded start
// where the ring toggles between inside and outside a neighbor's
// circle; they are sorted and deduplicated.
type Segment struct {
	Start, End int
	// PaddedLength is the arc length of the padded span.
	PaddedLength float64
	Crossings    []float64
	// Clearance is the full offset height required by the widest
	// contributing neighbor: clearance + both wire radii.
	Clearance float64

	neighbors []int
}

// span is a raw cyclic index interval attributed to one neighbor.
type span struct {
	start, end int
	neighbor   int
}

// circleDistance is the signed distance from a point to a neighbor's
// circle sphere: negative inside the circle radius, positive outside.
func circleDistance(p, center mgl64.Vec3, radius float64) float64 {
	return p.Sub(center).Len() - radius
}

// flagIndices returns the ring indices of c that lie within the
// flagging band of neighbor's circle, and whether the entire ring is
// flagged (full containment, which excludes the neighbor).
func flagIndices(c *coil.Coil, neighbor coil.Circle, band float64) ([]bool, bool) {
	flags := make([]bool, c.Len())
	all := true
	for k, v := range c.Vertices {
		d := circleDistance(v.Point, neighbor.Center, neighbor.Radius)
		if math.Abs(d) < band {
			flags[k] = true
		} else {
			all = false
		}
	}
	return flags, all
}

// groupSpans collects maximal cyclic runs of flagged indices. The scan
// starts from an unflagged index so a wraparound run comes out whole.
func groupSpans(flags []bool, neighbor int) []span {
	n := len(flags)
	cyc := coil.Cyclic(n)

	first := -1
	for i, f := range flags {
		if !f {
			first = i
			break
		}
	}
	if first == -1 {
		// Fully flagged rings are handled by the containment check
		// before this point.
		return nil
	}

	var spans []span
	open := -1
	for k := 0; k < n; k++ {
		i := cyc.Norm(first + k)
		if flags[i] && open == -1 {
			open = i
		}
		if !flags[i] && open != -1 {
			spans = append(spans, span{start: open, end: cyc.Prev(i), neighbor: neighbor})
			open = -1
		}
	}
	if open != -1 {
		spans = append(spans, span{start: open, end: cyc.Prev(first), neighbor: neighbor})
	}
	return spans
}

// mergeSpans merges b into a if the two overlap in cyclic order,
// reporting which interval contributes the start and end of the merged
// span. The second return is false when they are disjoint.
func mergeSpans(a, b span, cyc coil.Cyclic) (span, bool) {
	aHasB := cyc.Contains(a.start, a.end, b.start)
	bHasA := cyc.Contains(b.start, b.end, a.start)
	if !aHasB && !bHasA {
		return span{}, false
	}

	out := span{neighbor: a.neighbor}
	if aHasB {
		out.start = a.start
	} else {
		out.start = b.start
	}
	// The union ends at whichever endpoint reaches furthest forward
	// from the merged start.
	if cyc.Dist(out.start, b.end) > cyc.Dist(out.start, a.end) {
		out.end = b.end
	} else {
		out.end = a.end
	}
	return out, true
}

// mergeAll repeatedly merges overlapping spans until the set is
// pairwise disjoint, tracking which neighbors contributed to each
// merged span.
func mergeAll(spans []span, cyc coil.Cyclic) []mergedSpan {
	merged := make([]mergedSpan, 0, len(spans))
	for _, sp := range spans {
		merged = append(merged, mergedSpan{span: sp, neighbors: []int{sp.neighbor}})
	}

	for changed := true; changed; {
		changed = false
	outer:
		for i := 0; i < len(merged); i++ {
			for j := i + 1; j < len(merged); j++ {
				if u, ok := mergeSpans(merged[i].span, merged[j].span, cyc); ok {
					neighbors := append(merged[i].neighbors, merged[j].neighbors...)
					merged[i] = mergedSpan{span: u, neighbors: neighbors}
					merged = append(merged[:j], merged[j+1:]...)
					changed = true
					break outer
				}
			}
		}
	}

	for i := range merged {
		slices.Sort(merged[i].neighbors)
		merged[i].neighbors = slices.Compact(merged[i].neighbors)
	}
	return merged
}

type mergedSpan struct {
	span      span
	neighbors []int
}
