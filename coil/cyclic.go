package coil

// Cyclic is an index space of the given length with wraparound
// arithmetic, so ring and segment code never repeats raw modulo logic.
// The zero value is unusable; construct with the ring length.
type Cyclic int

// Norm maps any integer (including negatives) into [0, n).
func (c Cyclic) Norm(i int) int {
	n := int(c)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Next returns the index after i.
func (c Cyclic) Next(i int) int { return c.Norm(i + 1) }

// Prev returns the index before i.
func (c Cyclic) Prev(i int) int { return c.Norm(i - 1) }

// Dist returns the number of forward steps from from to to, in [0, n).
func (c Cyclic) Dist(from, to int) int {
	return c.Norm(to - from)
}

// Contains reports whether i lies on the forward span from start to
// end inclusive, wrapping if end < start.
func (c Cyclic) Contains(start, end, i int) bool {
	return c.Dist(start, i) <= c.Dist(start, end)
}

// Span returns the inclusive length of the forward span start..end.
func (c Cyclic) Span(start, end int) int {
	return c.Dist(start, end) + 1
}

// Slice returns the indices of the forward span start..end inclusive,
// wrapping past the end of the ring if needed.
func (c Cyclic) Slice(start, end int) []int {
	out := make([]int, 0, c.Span(start, end))
	for i := start; ; i = c.Next(i) {
		out = append(out, c.Norm(i))
		if c.Norm(i) == c.Norm(end) {
			return out
		}
	}
}
