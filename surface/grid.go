package surface

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// vertexGrid is a uniform spatial hash grid over the surface vertices,
// used to answer nearest-vertex queries without a full scan. Cells are
// hashed into a power-of-two table; collisions only cost extra
// candidate checks, never wrong answers, because the search widens by
// whole rings and verifies real distances.
type vertexGrid struct {
	surf     *Surface
	cellSize float64
	cells    [][]int
	cellMask int
}

type cellKey struct {
	X, Y, Z int
}

// vertexGrid returns the grid for this surface, building it on first
// use. Cell size is tied to the mesh resolution so a typical cell holds
// a handful of vertices.
func (s *Surface) vertexGrid() *vertexGrid {
	if s.grid != nil {
		return s.grid
	}

	cellSize := 2 * s.MeanEdgeLength()
	if cellSize <= 0 {
		cellSize = 1
	}
	numCells := nextPowerOfTwo(len(s.Vertices))

	g := &vertexGrid{
		surf:     s,
		cellSize: cellSize,
		cells:    make([][]int, numCells),
		cellMask: numCells - 1,
	}
	for i := range s.Vertices {
		idx := g.hashCell(g.worldToCell(s.Vertices[i].Point))
		g.cells[idx] = append(g.cells[idx], i)
	}
	s.grid = g
	return g
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (g *vertexGrid) worldToCell(pos mgl64.Vec3) cellKey {
	return cellKey{
		X: int(math.Floor(pos.X() / g.cellSize)),
		Y: int(math.Floor(pos.Y() / g.cellSize)),
		Z: int(math.Floor(pos.Z() / g.cellSize)),
	}
}

func (g *vertexGrid) hashCell(key cellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & g.cellMask
}

// nearest returns the index of the vertex closest to p. It scans cell
// rings outward from p's cell and keeps widening until every cell that
// could hold a closer vertex has been covered: a cell on ring r is at
// least (r-1)·cellSize away from p, so the search stops once that
// bound exceeds the best distance found.
func (g *vertexGrid) nearest(p mgl64.Vec3) int {
	center := g.worldToCell(p)
	best := -1
	bestDist := math.Inf(1)

	for ring := 0; ring <= g.maxRingRadius(); ring++ {
		if best >= 0 && float64(ring-1)*g.cellSize > bestDist {
			break
		}
		g.scanRing(center, ring, func(vi int) {
			d := g.surf.Vertices[vi].Point.Sub(p).Len()
			if d < bestDist {
				best = vi
				bestDist = d
			}
		})
	}
	if best < 0 {
		// Query far outside the mesh extent; fall back to a full scan.
		for vi := range g.surf.Vertices {
			d := g.surf.Vertices[vi].Point.Sub(p).Len()
			if d < bestDist {
				best = vi
				bestDist = d
			}
		}
	}
	return best
}

// maxRingRadius bounds the outward search so a query far off the mesh
// still terminates: once a cube of rings covers more cells than the
// table holds, every bucket has been visited at least once.
func (g *vertexGrid) maxRingRadius() int {
	r := 1
	for r*r*r < len(g.cells) {
		r++
	}
	return r + 1
}

// scanRing visits every vertex in cells on the hollow cubic shell of
// the given radius around center.
func (g *vertexGrid) scanRing(center cellKey, ring int, visit func(vi int)) {
	for x := center.X - ring; x <= center.X+ring; x++ {
		for y := center.Y - ring; y <= center.Y+ring; y++ {
			for z := center.Z - ring; z <= center.Z+ring; z++ {
				onShell := x == center.X-ring || x == center.X+ring ||
					y == center.Y-ring || y == center.Y+ring ||
					z == center.Z-ring || z == center.Z+ring
				if ring > 0 && !onShell {
					continue
				}
				for _, vi := range g.cells[g.hashCell(cellKey{x, y, z})] {
					visit(vi)
				}
			}
		}
	}
}
