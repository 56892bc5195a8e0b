package coil

import (
	"testing"
)

func TestCyclicNorm(t *testing.T) {
	c := Cyclic(5)
	cases := []struct{ in, want int }{
		{0, 0}, {4, 4}, {5, 0}, {7, 2}, {-1, 4}, {-6, 4}, {10, 0},
	}
	for _, tc := range cases {
		if got := c.Norm(tc.in); got != tc.want {
			t.Errorf("Norm(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCyclicNextPrev(t *testing.T) {
	c := Cyclic(4)
	if got := c.Next(3); got != 0 {
		t.Errorf("Next(3) = %d, want 0", got)
	}
	if got := c.Prev(0); got != 3 {
		t.Errorf("Prev(0) = %d, want 3", got)
	}
}

func TestCyclicDist(t *testing.T) {
	c := Cyclic(6)
	if got := c.Dist(1, 4); got != 3 {
		t.Errorf("Dist(1,4) = %d, want 3", got)
	}
	if got := c.Dist(4, 1); got != 3 {
		t.Errorf("Dist(4,1) = %d, want 3 (wrapping)", got)
	}
	if got := c.Dist(2, 2); got != 0 {
		t.Errorf("Dist(2,2) = %d, want 0", got)
	}
}

func TestCyclicContains(t *testing.T) {
	c := Cyclic(8)

	t.Run("plain span", func(t *testing.T) {
		for i := 2; i <= 5; i++ {
			if !c.Contains(2, 5, i) {
				t.Errorf("Contains(2,5,%d) = false", i)
			}
		}
		if c.Contains(2, 5, 6) || c.Contains(2, 5, 1) {
			t.Error("span 2..5 contains outside index")
		}
	})

	t.Run("wrapping span", func(t *testing.T) {
		for _, i := range []int{6, 7, 0, 1} {
			if !c.Contains(6, 1, i) {
				t.Errorf("Contains(6,1,%d) = false", i)
			}
		}
		if c.Contains(6, 1, 3) {
			t.Error("wrapping span 6..1 contains 3")
		}
	})
}

func TestCyclicSlice(t *testing.T) {
	c := Cyclic(5)

	got := c.Slice(3, 1)
	want := []int{3, 4, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("Slice(3,1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Slice(3,1) = %v, want %v", got, want)
		}
	}

	if got := c.Slice(2, 2); len(got) != 1 || got[0] != 2 {
		t.Errorf("Slice(2,2) = %v, want [2]", got)
	}
}

func TestCyclicSpan(t *testing.T) {
	c := Cyclic(10)
	if got := c.Span(8, 2); got != 5 {
		t.Errorf("Span(8,2) = %d, want 5", got)
	}
	if got := c.Span(3, 3); got != 1 {
		t.Errorf("Span(3,3) = %d, want 1", got)
	}
}

func TestBreakIndices(t *testing.T) {
	t.Run("even split", func(t *testing.T) {
		got := BreakIndices(12, 4, 0)
		want := []int{0, 3, 6, 9}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("BreakIndices = %v, want %v", got, want)
			}
		}
	})
	t.Run("zero count", func(t *testing.T) {
		if got := BreakIndices(12, 0, 0); got != nil {
			t.Errorf("BreakIndices = %v, want nil", got)
		}
	})
}
