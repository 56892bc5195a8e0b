package surface

import (
	"fmt"
	"slices"

	"github.com/emwerks/coilplan/geom"
)

// TrimByPlane cuts the surface by a plane, keeping the half-space the
// plane normal points into (signed distance >= 0). Faces with any
// removed vertex are dropped; their surviving vertices become new
// boundary ("cut-boundary") vertices and are returned as indices into
// the trimmed surface, sorted.
//
// If flattenCut is set, cut-boundary vertices are projected exactly
// onto the plane, their normals are flattened into the plane, and
// every face touching a moved vertex gets its normal and area
// recomputed.
//
// The receiver is left untouched; adjacency on the result is rebuilt
// from scratch.
func (s *Surface) TrimByPlane(plane geom.Plane, flattenCut bool) (*Surface, []int, error) {
	keep := make([]bool, len(s.Vertices))
	remap := make([]int, len(s.Vertices))
	kept := 0
	for i, v := range s.Vertices {
		if plane.SignedDistance(v.Point) >= 0 {
			keep[i] = true
			remap[i] = kept
			kept++
		} else {
			remap[i] = -1
		}
	}

	out := &Surface{Vertices: make([]Vertex, 0, kept)}
	for i, v := range s.Vertices {
		if keep[i] {
			out.Vertices = append(out.Vertices, Vertex{Point: v.Point, Normal: v.Normal})
		}
	}

	// Survey faces: fully-kept faces survive, straddling faces mark
	// their surviving vertices as cut boundary.
	cut := make(map[int]struct{})
	for _, f := range s.Faces {
		survivors := 0
		for _, vi := range f.Vertices {
			if keep[vi] {
				survivors++
			}
		}
		switch survivors {
		case 3:
			out.Faces = append(out.Faces, Face{
				Vertices: [3]int{remap[f.Vertices[0]], remap[f.Vertices[1]], remap[f.Vertices[2]]},
				Normal:   f.Normal,
				Area:     f.Area,
			})
		case 1, 2:
			for _, vi := range f.Vertices {
				if keep[vi] {
					cut[remap[vi]] = struct{}{}
				}
			}
		}
	}

	// Carry over edges whose endpoints both survive. Edges that lost
	// all faces still survive here as isolated boundary edges only if
	// some kept face re-claims them below; orphans are filtered out.
	for _, e := range s.Edges {
		if keep[e.Vertices[0]] && keep[e.Vertices[1]] {
			out.Edges = append(out.Edges, Edge{
				Vertices: edgeKey(remap[e.Vertices[0]], remap[e.Vertices[1]]),
			})
		}
	}

	// Wire faces to edges. A lookup miss means the input tables were
	// already contradictory.
	for i := range out.Vertices {
		out.Vertices[i].Edges = out.Vertices[i].Edges[:0]
	}
	for ei, e := range out.Edges {
		out.Vertices[e.Vertices[0]].Edges = append(out.Vertices[e.Vertices[0]].Edges, ei)
		out.Vertices[e.Vertices[1]].Edges = append(out.Vertices[e.Vertices[1]].Edges, ei)
	}
	for fi := range out.Faces {
		f := &out.Faces[fi]
		for k := 0; k < 3; k++ {
			ei, err := out.edgeBetween(f.Vertices[k], f.Vertices[(k+1)%3])
			if err != nil {
				return nil, nil, err
			}
			if len(out.Edges[ei].Faces) >= 2 {
				return nil, nil, fmt.Errorf("surface: %w: trimmed edge %d has more than 2 faces",
					ErrInconsistentMesh, ei)
			}
			out.Edges[ei].Faces = append(out.Edges[ei].Faces, fi)
			f.Edges[k] = ei
		}
	}

	out.dropOrphanEdges()
	out.rebuildVertexAdjacency()

	cutIndices := make([]int, 0, len(cut))
	for vi := range cut {
		cutIndices = append(cutIndices, vi)
	}
	slices.Sort(cutIndices)

	if flattenCut {
		out.flattenCutVertices(plane, cutIndices)
	}

	return out, cutIndices, nil
}

// dropOrphanEdges removes edges with no adjacent face, remapping face
// edge references. Orphans appear when a trim removes every face around
// an edge but both its endpoints survive.
func (s *Surface) dropOrphanEdges() {
	remap := make([]int, len(s.Edges))
	kept := s.Edges[:0]
	for i, e := range s.Edges {
		if len(e.Faces) == 0 {
			remap[i] = -1
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, e)
	}
	s.Edges = kept
	for fi := range s.Faces {
		for k := 0; k < 3; k++ {
			s.Faces[fi].Edges[k] = remap[s.Faces[fi].Edges[k]]
		}
	}
}

// flattenCutVertices pushes the cut-boundary vertices exactly onto the
// cutting plane and repairs the geometry around them.
func (s *Surface) flattenCutVertices(plane geom.Plane, cutIndices []int) {
	touched := make(map[int]struct{})
	for _, vi := range cutIndices {
		v := &s.Vertices[vi]
		v.Point = plane.Project(v.Point)

		flat := geom.Reject(v.Normal, plane.Normal)
		if l := flat.Len(); l > 1e-12 {
			v.Normal = flat.Mul(1 / l)
		}
		for _, fi := range v.Faces {
			touched[fi] = struct{}{}
		}
	}
	for fi := range touched {
		f := &s.Faces[fi]
		f.Normal, f.Area = triangleNormalArea(
			s.Vertices[f.Vertices[0]].Point,
			s.Vertices[f.Vertices[1]].Point,
			s.Vertices[f.Vertices[2]].Point,
		)
	}
}
