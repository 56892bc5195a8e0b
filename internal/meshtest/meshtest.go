// Package meshtest builds the small synthetic surfaces the test
// suites run against: closed UV spheres and open flat grids.
package meshtest

import (
	"math"

	"github.com/emwerks/coilplan/surface"
	"github.com/go-gl/mathgl/mgl64"
)

// Sphere triangulates a UV sphere of the given radius centered at the
// origin, with single vertices at the poles. stacks >= 3, slices >= 3.
func Sphere(radius float64, stacks, slices int) *surface.Surface {
	var points []mgl64.Vec3
	points = append(points, mgl64.Vec3{0, 0, radius}) // north pole

	// Interior rings, top to bottom.
	for st := 1; st < stacks; st++ {
		phi := math.Pi * float64(st) / float64(stacks)
		for sl := 0; sl < slices; sl++ {
			theta := 2 * math.Pi * float64(sl) / float64(slices)
			points = append(points, mgl64.Vec3{
				radius * math.Sin(phi) * math.Cos(theta),
				radius * math.Sin(phi) * math.Sin(theta),
				radius * math.Cos(phi),
			})
		}
	}
	south := len(points)
	points = append(points, mgl64.Vec3{0, 0, -radius})

	ring := func(st, sl int) int { return 1 + (st-1)*slices + sl%slices }

	var tris [][3]int
	for sl := 0; sl < slices; sl++ {
		tris = append(tris, [3]int{0, ring(1, sl), ring(1, sl+1)})
		tris = append(tris, [3]int{south, ring(stacks-1, sl+1), ring(stacks-1, sl)})
	}
	for st := 1; st < stacks-1; st++ {
		for sl := 0; sl < slices; sl++ {
			a, b := ring(st, sl), ring(st, sl+1)
			c, d := ring(st+1, sl), ring(st+1, sl+1)
			tris = append(tris, [3]int{a, c, b}, [3]int{b, c, d})
		}
	}

	surf, err := surface.New(points, tris)
	if err != nil {
		panic(err)
	}
	return surf
}

// Grid triangulates an open flat rectangle in the z=0 plane: nx by ny
// vertices with the given spacing, anchored at the origin, normals
// facing +Z. Its rim is a mesh boundary.
func Grid(nx, ny int, spacing float64) *surface.Surface {
	var points []mgl64.Vec3
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			points = append(points, mgl64.Vec3{float64(x) * spacing, float64(y) * spacing, 0})
		}
	}

	at := func(x, y int) int { return y*nx + x }
	var tris [][3]int
	for y := 0; y < ny-1; y++ {
		for x := 0; x < nx-1; x++ {
			a, b := at(x, y), at(x+1, y)
			c, d := at(x, y+1), at(x+1, y+1)
			tris = append(tris, [3]int{a, b, c}, [3]int{b, d, c})
		}
	}

	surf, err := surface.New(points, tris)
	if err != nil {
		panic(err)
	}
	return surf
}
