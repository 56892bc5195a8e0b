// Package surface implements an indexed triangle mesh with full
// vertex/edge/face adjacency, the substrate that coil rings are laid
// out on.
//
// A Surface is built once from raw triangle data (typically an STL
// import), optionally trimmed by a plane, and is then read-only for the
// duration of a layout run. All adjacency lists are kept sorted and
// deduplicated so that queries and set operations stay deterministic.
package surface

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is a mesh vertex: its position, the area-weighted average of
// its incident face normals, and sorted unique lists of incident edge
// and face indices.
type Vertex struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
	Edges  []int
	Faces  []int
}

// Edge connects exactly two distinct vertices. Vertices are stored
// sorted so edge identity is independent of winding. Faces holds the
// indices of the 1 or 2 adjacent faces; an edge with a single adjacent
// face lies on the mesh boundary.
type Edge struct {
	Vertices [2]int
	Faces    []int
}

// Boundary reports whether the edge has fewer than two adjacent faces.
func (e Edge) Boundary() bool {
	return len(e.Faces) < 2
}

// Face is a triangle. Edges is co-indexed with Vertices: edge i
// connects vertex i and vertex (i+1)%3.
type Face struct {
	Vertices [3]int
	Edges    [3]int
	Normal   mgl64.Vec3
	Area     float64
}

// Surface owns the three parallel index-addressed containers of the
// mesh plus a lazily built spatial grid for nearest-vertex queries.
type Surface struct {
	Vertices []Vertex
	Edges    []Edge
	Faces    []Face

	grid             *vertexGrid
	boundaryVertices []int
}

// New builds a Surface from raw points and triangle index triples,
// computing edges, adjacency, face normals/areas and vertex normals.
// Triangles referencing out-of-range or repeated vertices are rejected.
func New(points []mgl64.Vec3, tris [][3]int) (*Surface, error) {
	s := &Surface{
		Vertices: make([]Vertex, len(points)),
		Faces:    make([]Face, 0, len(tris)),
	}
	for i, p := range points {
		s.Vertices[i].Point = p
	}

	edgeIndex := make(map[[2]int]int, len(tris)*3/2)

	for ti, tri := range tris {
		for _, v := range tri {
			if v < 0 || v >= len(points) {
				return nil, fmt.Errorf("surface: triangle %d references vertex %d of %d", ti, v, len(points))
			}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			return nil, fmt.Errorf("surface: triangle %d is degenerate: %v", ti, tri)
		}

		face := Face{Vertices: tri}
		face.Normal, face.Area = triangleNormalArea(
			points[tri[0]], points[tri[1]], points[tri[2]],
		)

		fi := len(s.Faces)
		for k := 0; k < 3; k++ {
			key := edgeKey(tri[k], tri[(k+1)%3])
			ei, ok := edgeIndex[key]
			if !ok {
				ei = len(s.Edges)
				edgeIndex[key] = ei
				s.Edges = append(s.Edges, Edge{Vertices: key})
			}
			if len(s.Edges[ei].Faces) >= 2 {
				return nil, fmt.Errorf("surface: %w: edge %v-%v has more than 2 faces",
					ErrInconsistentMesh, key[0], key[1])
			}
			s.Edges[ei].Faces = append(s.Edges[ei].Faces, fi)
			face.Edges[k] = ei
		}
		s.Faces = append(s.Faces, face)
	}

	s.rebuildVertexAdjacency()
	s.recomputeVertexNormals()
	return s, nil
}

// edgeKey returns the order-independent identity of the edge a-b.
func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// triangleNormalArea returns the unit normal (right-hand rule over
// a,b,c) and the Heron-formula area of a triangle.
func triangleNormalArea(a, b, c mgl64.Vec3) (mgl64.Vec3, float64) {
	cross := b.Sub(a).Cross(c.Sub(a))
	length := cross.Len()

	la := b.Sub(a).Len()
	lb := c.Sub(b).Len()
	lc := a.Sub(c).Len()
	sp := (la + lb + lc) / 2
	area := math.Sqrt(math.Max(0, sp*(sp-la)*(sp-lb)*(sp-lc)))

	if length < 1e-30 {
		return mgl64.Vec3{}, area
	}
	return cross.Mul(1 / length), area
}

// rebuildVertexAdjacency recomputes every vertex's incident edge and
// face lists from the edge and face tables, sorted and deduplicated.
func (s *Surface) rebuildVertexAdjacency() {
	for i := range s.Vertices {
		s.Vertices[i].Edges = s.Vertices[i].Edges[:0]
		s.Vertices[i].Faces = s.Vertices[i].Faces[:0]
	}
	for ei, e := range s.Edges {
		s.Vertices[e.Vertices[0]].Edges = append(s.Vertices[e.Vertices[0]].Edges, ei)
		s.Vertices[e.Vertices[1]].Edges = append(s.Vertices[e.Vertices[1]].Edges, ei)
	}
	for fi, f := range s.Faces {
		for _, vi := range f.Vertices {
			s.Vertices[vi].Faces = append(s.Vertices[vi].Faces, fi)
		}
	}
	for i := range s.Vertices {
		slices.Sort(s.Vertices[i].Edges)
		s.Vertices[i].Edges = slices.Compact(s.Vertices[i].Edges)
		slices.Sort(s.Vertices[i].Faces)
		s.Vertices[i].Faces = slices.Compact(s.Vertices[i].Faces)
	}
}

// recomputeVertexNormals rebuilds every vertex normal as the
// area-weighted average of its incident face normals, normalized.
// Isolated vertices keep a zero normal.
func (s *Surface) recomputeVertexNormals() {
	for i := range s.Vertices {
		sum := mgl64.Vec3{}
		for _, fi := range s.Vertices[i].Faces {
			sum = sum.Add(s.Faces[fi].Normal.Mul(s.Faces[fi].Area))
		}
		if l := sum.Len(); l > 1e-30 {
			sum = sum.Mul(1 / l)
		}
		s.Vertices[i].Normal = sum
	}
}

// edgeBetween returns the index of the edge connecting vertices a and
// b. A miss means the face and edge tables disagree, which only happens
// on topologically broken input.
func (s *Surface) edgeBetween(a, b int) (int, error) {
	key := edgeKey(a, b)
	for _, ei := range s.Vertices[a].Edges {
		if s.Edges[ei].Vertices == key {
			return ei, nil
		}
	}
	return 0, fmt.Errorf("surface: %w: no edge between vertices %d and %d", ErrInconsistentMesh, a, b)
}

// invalidate drops cached query structures after a mutation.
func (s *Surface) invalidate() {
	s.grid = nil
	s.boundaryVertices = nil
}
