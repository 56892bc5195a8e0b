package mousehole

import (
	"math"
	"slices"
	"sort"

	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/diag"
	"github.com/emwerks/coilplan/geom"
)

// Resolve detects wire collisions between every ordered coil pair and
// shapes a smooth bulge into the lower-indexed coil of each pair. The
// input coils are never mutated; the returned slice holds clones where
// a bulge was applied and the original pointers elsewhere.
//
// circles must be the specifications the coils were realized from;
// the neighbor test uses their center and radius, not the realized
// ring, so the flagging band stays stable while a ring is being bent.
func Resolve(coils []*coil.Coil, circles []coil.Circle, clearance float64, sink *diag.Sink) []*coil.Coil {
	out := make([]*coil.Coil, len(coils))
	copy(out, coils)

	for i := range coils {
		segments := DetectSegments(coils, circles, i, clearance, sink)
		if len(segments) == 0 {
			continue
		}
		bent := coils[i].Clone()
		for _, seg := range segments {
			applySegment(bent, seg)
		}
		out[i] = bent
	}
	return out
}

// DetectSegments builds the merged overlap segments for coil i against
// every higher-indexed neighbor. Neighbors whose flagging band covers
// coil i's entire ring are excluded: a fully contained ring cannot be
// bridged and bending it everywhere would just translate it.
func DetectSegments(coils []*coil.Coil, circles []coil.Circle, i int, clearance float64, sink *diag.Sink) []Segment {
	c := coils[i]
	cyc := coil.Cyclic(c.Len())

	var spans []span
	required := make(map[int]float64)
	for j := i + 1; j < len(coils); j++ {
		band := (c.WireRadius + coils[j].WireRadius + clearance) * nearFactor
		flags, contained := flagIndices(c, circles[j], band)
		if contained {
			continue
		}
		required[j] = clearance + c.WireRadius + coils[j].WireRadius
		spans = append(spans, groupSpans(flags, j)...)
	}
	if len(spans) == 0 {
		return nil
	}

	merged := mergeAll(spans, cyc)
	segments := make([]Segment, 0, len(merged))
	for _, m := range merged {
		if len(m.neighbors) > 1 {
			sink.Publish(diag.SegmentMergedEvent{
				Coil: i, Neighbor: m.neighbors[1], Start: m.span.start, End: m.span.end,
			})
		}
		seg := buildSegment(c, circles, m)
		for _, nb := range m.neighbors {
			if required[nb] > seg.Clearance {
				seg.Clearance = required[nb]
			}
		}
		segments = append(segments, seg)
	}
	return segments
}

// buildSegment pads a merged span, measures its arc length, and
// locates the wire crossings: the arc offsets where the ring toggles
// between inside and outside a contributing neighbor's circle, found
// by linear interpolation between the two straddling ring points.
func buildSegment(c *coil.Coil, circles []coil.Circle, m mergedSpan) Segment {
	cyc := coil.Cyclic(c.Len())
	start := cyc.Norm(m.span.start - segmentPadding)
	end := cyc.Norm(m.span.end + segmentPadding)
	if cyc.Span(start, end) >= c.Len() {
		// Padding wrapped the span onto itself; keep it unpadded.
		start, end = m.span.start, m.span.end
	}
	idx := cyc.Slice(start, end)

	// Cumulative arc length from the padded start.
	arc := make([]float64, len(idx))
	for k := 1; k < len(idx); k++ {
		step := c.Vertices[idx[k]].Point.Sub(c.Vertices[idx[k-1]].Point).Len()
		arc[k] = arc[k-1] + step
	}

	seg := Segment{
		Start:        start,
		End:          end,
		PaddedLength: arc[len(arc)-1],
		neighbors:    m.neighbors,
	}

	var crossings []float64
	for _, nb := range m.neighbors {
		for k := 0; k+1 < len(idx); k++ {
			d0 := circleDistance(c.Vertices[idx[k]].Point, circles[nb].Center, circles[nb].Radius)
			d1 := circleDistance(c.Vertices[idx[k+1]].Point, circles[nb].Center, circles[nb].Radius)
			if d0 == 0 {
				crossings = append(crossings, arc[k])
				continue
			}
			if d0*d1 < 0 {
				t := d0 / (d0 - d1)
				crossings = append(crossings, arc[k]+t*(arc[k+1]-arc[k]))
			}
		}
	}
	sort.Float64s(crossings)
	seg.Crossings = dedupOffsets(crossings, seg.PaddedLength*1e-9)
	return seg
}

// dedupOffsets drops offsets closer than eps to their predecessor.
func dedupOffsets(offsets []float64, eps float64) []float64 {
	return slices.CompactFunc(offsets, func(a, b float64) bool {
		return math.Abs(a-b) <= eps
	})
}

// applySegment bends the coil along one segment: each ring point in
// the padded span is pushed along its surface normal by the blend
// offset and its wire cross-section frame is rotated about the local
// ring tangent by the companion angle.
func applySegment(c *coil.Coil, seg Segment) {
	cyc := coil.Cyclic(c.Len())
	idx := cyc.Slice(seg.Start, seg.End)

	arc := make([]float64, len(idx))
	for k := 1; k < len(idx); k++ {
		arc[k] = arc[k-1] + c.Vertices[idx[k]].Point.Sub(c.Vertices[idx[k-1]].Point).Len()
	}

	firstX, lastX := seg.tailCrossings()
	for k, i := range idx {
		offset, rot := blend(arc[k], seg.PaddedLength, firstX, lastX, seg.Clearance)
		if offset == 0 && rot == 0 {
			continue
		}

		v := &c.Vertices[i]
		v.Point = v.Point.Add(v.SurfaceNormal.Mul(offset))
		tangent := c.Vertices[cyc.Next(i)].Point.Sub(c.Vertices[cyc.Prev(i)].Point)
		if tangent.Len() > 1e-12 {
			v.WireNormal = geom.RotateAbout(v.WireNormal, tangent, rot)
		}
	}
}

// tailCrossings returns the first and last crossing offsets, falling
// back to the segment midpoint when a segment was flagged without the
// ring ever piercing a neighbor's sphere.
func (seg Segment) tailCrossings() (float64, float64) {
	if len(seg.Crossings) == 0 {
		mid := seg.PaddedLength / 2
		return mid, mid
	}
	return seg.Crossings[0], seg.Crossings[len(seg.Crossings)-1]
}

// blend maps an arc position within the padded segment to a radial
// offset and a cross-section rotation. The rising tail follows a
// quarter circle: with f the normalized distance from the first
// crossing back toward the segment start, the offset is c·sqrt(1-f²)
// and the rotation asin(f), so the lift is zero at the segment ends,
// reaches the full clearance at the crossings with a horizontal
// tangent, and stays flat through the interior. The falling tail
// mirrors it with the opposite rotation sign.
func blend(x, length, firstX, lastX, c float64) (offset, rot float64) {
	switch {
	case x < 0 || x > length:
		return 0, 0
	case x < firstX:
		f := 1.0
		if firstX > 0 {
			f = (firstX - x) / firstX
		}
		return c * math.Sqrt(math.Max(0, 1-f*f)), math.Asin(math.Min(1, f))
	case x > lastX:
		tail := length - lastX
		f := 1.0
		if tail > 0 {
			f = (x - lastX) / tail
		}
		return c * math.Sqrt(math.Max(0, 1-f*f)), -math.Asin(math.Min(1, f))
	default:
		return c, 0
	}
}
