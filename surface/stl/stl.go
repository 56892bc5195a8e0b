// Package stl reads and writes STL meshes and converts them to the
// indexed surface structure used by the rest of the module.
//
// Both binary and ASCII STL are read; the format is sniffed from the
// file contents rather than the extension, since "solid" headers on
// binary files are common in the wild. Triangle soup vertices are
// welded by quantized position before the surface is indexed.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/emwerks/coilplan/surface"
	"github.com/go-gl/mathgl/mgl64"
)

// weldScale quantizes coordinates for vertex welding. Two vertices
// closer than 1/weldScale on every axis are considered the same point.
const weldScale = 1e6

// Load reads an STL file and builds a welded, fully indexed Surface.
func Load(path string) (*surface.Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses STL data from r. The whole stream is buffered first so
// the binary/ASCII decision can look at both the header and the size.
func Read(r io.Reader) (*surface.Surface, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("stl: read: %w", err)
	}
	if len(data) < 15 {
		return nil, fmt.Errorf("stl: file too short (%d bytes)", len(data))
	}

	var tris [][3]mgl64.Vec3
	if isBinary(data) {
		tris, err = parseBinary(data)
	} else {
		tris, err = parseASCII(data)
	}
	if err != nil {
		return nil, err
	}

	return weld(tris)
}

// isBinary decides between the two encodings. A binary file's length
// is exactly 84 + 50*count; an ASCII file starts with "solid" and
// cannot satisfy that equation except by freak coincidence.
func isBinary(data []byte) bool {
	if len(data) >= 84 {
		count := binary.LittleEndian.Uint32(data[80:84])
		if len(data) == 84+int(count)*50 {
			return true
		}
	}
	return !strings.HasPrefix(strings.TrimLeft(string(data[:15]), " \t"), "solid")
}

func parseBinary(data []byte) ([][3]mgl64.Vec3, error) {
	if len(data) < 84 {
		return nil, fmt.Errorf("stl: binary header truncated")
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	if len(data) < 84+int(count)*50 {
		return nil, fmt.Errorf("stl: binary body truncated: %d triangles declared, %d bytes present",
			count, len(data)-84)
	}

	tris := make([][3]mgl64.Vec3, 0, count)
	off := 84
	for i := uint32(0); i < count; i++ {
		// Skip the 12-byte facet normal; it is recomputed from the
		// triangle during indexing.
		off += 12
		var tri [3]mgl64.Vec3
		for v := 0; v < 3; v++ {
			tri[v] = mgl64.Vec3{
				float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:]))),
			}
			off += 12
		}
		off += 2 // attribute byte count
		tris = append(tris, tri)
	}
	return tris, nil
}

func parseASCII(data []byte) ([][3]mgl64.Vec3, error) {
	var tris [][3]mgl64.Vec3
	var current []mgl64.Vec3

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("stl: line %d: malformed vertex", line)
			}
			var p mgl64.Vec3
			for i := 0; i < 3; i++ {
				if _, err := fmt.Sscanf(fields[i+1], "%g", &p[i]); err != nil {
					return nil, fmt.Errorf("stl: line %d: bad coordinate %q: %w", line, fields[i+1], err)
				}
			}
			current = append(current, p)
		case "endfacet":
			if len(current) != 3 {
				return nil, fmt.Errorf("stl: line %d: facet with %d vertices", line, len(current))
			}
			tris = append(tris, [3]mgl64.Vec3{current[0], current[1], current[2]})
			current = current[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stl: scan: %w", err)
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("stl: no facets found")
	}
	return tris, nil
}

// weld deduplicates soup vertices by quantized position and hands the
// indexed triangles to the surface builder.
func weld(tris [][3]mgl64.Vec3) (*surface.Surface, error) {
	type key [3]int64
	quantize := func(p mgl64.Vec3) key {
		return key{
			int64(math.Round(p.X() * weldScale)),
			int64(math.Round(p.Y() * weldScale)),
			int64(math.Round(p.Z() * weldScale)),
		}
	}

	index := make(map[key]int)
	var points []mgl64.Vec3
	var faces [][3]int
	for _, tri := range tris {
		var ids [3]int
		for v, p := range tri {
			k := quantize(p)
			id, ok := index[k]
			if !ok {
				id = len(points)
				index[k] = id
				points = append(points, p)
			}
			ids[v] = id
		}
		// Welding can collapse slivers into degenerate triangles.
		if ids[0] == ids[1] || ids[1] == ids[2] || ids[0] == ids[2] {
			continue
		}
		faces = append(faces, ids)
	}

	return surface.New(points, faces)
}

// Write dumps the surface as binary STL, mainly for inspecting trims
// and realized layouts in a mesh viewer.
func Write(w io.Writer, s *surface.Surface) error {
	bw := bufio.NewWriter(w)

	header := make([]byte, 80)
	copy(header, "coilplan surface export")
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(s.Faces))); err != nil {
		return fmt.Errorf("stl: write count: %w", err)
	}

	put := func(v mgl64.Vec3) error {
		for i := 0; i < 3; i++ {
			if err := binary.Write(bw, binary.LittleEndian, float32(v[i])); err != nil {
				return err
			}
		}
		return nil
	}
	for _, f := range s.Faces {
		if err := put(f.Normal); err != nil {
			return fmt.Errorf("stl: write facet: %w", err)
		}
		for _, vi := range f.Vertices {
			if err := put(s.Vertices[vi].Point); err != nil {
				return fmt.Errorf("stl: write facet: %w", err)
			}
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("stl: write facet: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile writes the surface to path as binary STL.
func WriteFile(path string, s *surface.Surface) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	defer f.Close()

	if err := Write(f, s); err != nil {
		return err
	}
	return f.Close()
}
