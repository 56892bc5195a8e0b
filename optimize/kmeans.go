package optimize

import (
	"fmt"
	"math"

	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/surface"
	"github.com/go-gl/mathgl/mgl64"
)

// KMeans is the coil-count-driven strategy: when the caller supplies
// only a coil count, surface vertices are clustered into K groups to
// invent centers, a uniform radius is derived from the mean
// nearest-neighbor spacing, and iteration is delegated to the
// Alternating heuristic.
type KMeans struct {
	K int
	Alternating
}

func NewKMeans(k int, stepSize float64) *KMeans {
	return &KMeans{K: k, Alternating: Alternating{StepSize: stepSize}}
}

const (
	// lloydIterations bounds the assignment/centroid refinement loop.
	lloydIterations = 30

	// boundaryRounds bounds the progressive boundary-exclusion
	// re-clustering.
	boundaryRounds = 5
)

// Seed clusters the surface vertices into K centers. If a chosen
// center sits closer to the trimmed boundary than to its nearest
// neighbor center, the band of vertices near the boundary is widened
// out of the clustering set and the clustering rerun, up to
// boundaryRounds times; coils seeded hard against the boundary have
// nowhere to grow.
func (km *KMeans) Seed(surf *surface.Surface) ([]coil.Circle, error) {
	if km.K < 1 {
		return nil, fmt.Errorf("optimize: k-means needs at least 1 coil, got %d", km.K)
	}
	if km.K > len(surf.Vertices) {
		return nil, fmt.Errorf("optimize: %d coils requested but surface has %d vertices",
			km.K, len(surf.Vertices))
	}

	boundary := surf.BoundaryVertexIndices()
	exclusion := 0.0
	band := 2 * surf.MeanEdgeLength()

	var centers []mgl64.Vec3
	for round := 0; round <= boundaryRounds; round++ {
		active := activeVertices(surf, boundary, exclusion)
		if len(active) < km.K {
			break
		}
		centers = cluster(surf, active, km.K)

		if len(boundary) == 0 || !tooCloseToBoundary(surf, centers) {
			break
		}
		exclusion += band
	}
	if centers == nil {
		return nil, fmt.Errorf("optimize: boundary exclusion left fewer than %d vertices to cluster", km.K)
	}

	radius := meanNeighborSpacing(centers) / 2
	circles := make([]coil.Circle, len(centers))
	for i, c := range centers {
		circles[i] = coil.Circle{Center: c, Radius: radius}
	}
	return circles, nil
}

// activeVertices lists the vertex indices further than exclusion from
// every boundary vertex.
func activeVertices(surf *surface.Surface, boundary []int, exclusion float64) []int {
	if exclusion <= 0 || len(boundary) == 0 {
		all := make([]int, len(surf.Vertices))
		for i := range all {
			all[i] = i
		}
		return all
	}
	var active []int
	for i := range surf.Vertices {
		keep := true
		for _, bi := range boundary {
			if surf.Vertices[bi].Point.Sub(surf.Vertices[i].Point).Len() < exclusion {
				keep = false
				break
			}
		}
		if keep {
			active = append(active, i)
		}
	}
	return active
}

// cluster runs deterministic k-means over the given vertex subset:
// farthest-point seeding from the first active vertex, then Lloyd
// refinement with centroids snapped back to surface vertices.
func cluster(surf *surface.Surface, active []int, k int) []mgl64.Vec3 {
	centers := make([]mgl64.Vec3, 0, k)
	centers = append(centers, surf.Vertices[active[0]].Point)
	for len(centers) < k {
		far, farDist := active[0], -1.0
		for _, vi := range active {
			d := math.Inf(1)
			for _, c := range centers {
				d = math.Min(d, surf.Vertices[vi].Point.Sub(c).Len())
			}
			if d > farDist {
				far, farDist = vi, d
			}
		}
		centers = append(centers, surf.Vertices[far].Point)
	}

	assign := make([]int, len(active))
	for iter := 0; iter < lloydIterations; iter++ {
		changed := false
		for ai, vi := range active {
			best, bestDist := 0, math.Inf(1)
			for ci, c := range centers {
				if d := surf.Vertices[vi].Point.Sub(c).Len(); d < bestDist {
					best, bestDist = ci, d
				}
			}
			if assign[ai] != best {
				assign[ai] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([]mgl64.Vec3, k)
		counts := make([]int, k)
		for ai, vi := range active {
			sums[assign[ai]] = sums[assign[ai]].Add(surf.Vertices[vi].Point)
			counts[assign[ai]]++
		}
		for ci := range centers {
			if counts[ci] > 0 {
				centers[ci] = surf.Snap(sums[ci].Mul(1 / float64(counts[ci])))
			}
		}
	}
	return centers
}

// tooCloseToBoundary reports whether any center is nearer to the mesh
// boundary than to its nearest neighbor center.
func tooCloseToBoundary(surf *surface.Surface, centers []mgl64.Vec3) bool {
	for i, c := range centers {
		_, bd := surf.NearestBoundaryVertex(c)
		nn := math.Inf(1)
		for j, o := range centers {
			if j != i {
				nn = math.Min(nn, o.Sub(c).Len())
			}
		}
		if bd < nn {
			return true
		}
	}
	return false
}

// meanNeighborSpacing averages each center's distance to its nearest
// neighbor. With a single center it falls back to the center's norm
// scale to stay non-zero.
func meanNeighborSpacing(centers []mgl64.Vec3) float64 {
	if len(centers) < 2 {
		if len(centers) == 1 {
			return math.Max(1, centers[0].Len()/2)
		}
		return 1
	}
	sum := 0.0
	for i, c := range centers {
		nn := math.Inf(1)
		for j, o := range centers {
			if j != i {
				nn = math.Min(nn, o.Sub(c).Len())
			}
		}
		sum += nn
	}
	return sum / float64(len(centers))
}
