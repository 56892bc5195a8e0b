package surface

import "errors"

// ErrInconsistentMesh signals that the vertex/edge/face tables
// contradict each other, e.g. a face whose vertices share no edge.
// It indicates broken input topology, never an internal bug, and is
// always returned wrapped with the offending indices.
var ErrInconsistentMesh = errors.New("inconsistent mesh topology")
