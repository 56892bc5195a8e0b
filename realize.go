package coilplan

import (
	"errors"
	"fmt"

	"github.com/emwerks/coilplan/coil"
)

// realize extracts one coil ring per circle: sphere-band intersection
// against the surface, angular cleaning into an ordered ring, then
// break placement. Extraction is independent per circle, so it fans
// out across the configured workers; results land in an indexed slice
// to keep output order deterministic.
func (s *Session) realize(circles []coil.Circle) ([]*coil.Coil, error) {
	coils := make([]*coil.Coil, len(circles))
	errs := make([]error, len(circles))

	task(s.Workers, circles, func(i int, c coil.Circle) {
		coils[i], errs[i] = s.realizeOne(i, c)
	})

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return coils, nil
}

func (s *Session) realizeOne(i int, c coil.Circle) (*coil.Coil, error) {
	band := coil.SphereIntersect(s.Surf, c.Center, c.Radius, s.Epsilon)
	if band.NearestVertex < 0 {
		return nil, fmt.Errorf("circle %d: empty surface", i)
	}
	normal := s.Surf.Vertices[band.NearestVertex].Normal

	ring, err := coil.CleanByAngle(c.Center, normal, c.Radius, s.WireRadius, band.Points, band.Normals, true)
	if err != nil {
		return nil, fmt.Errorf("circle %d: %w", i, err)
	}
	ring.Breaks = coil.BreakIndices(ring.Len(), c.BreakCount, c.BreakAngleOffset)
	return ring, nil
}
