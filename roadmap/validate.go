package roadmap

import "github.com/paulmach/orb/planar"

// Validator decides whether a candidate edge between two configurations is
// admissible. It never mutates the vertices it inspects; committing accepted
// edges is the builder's job.
type Validator struct {
	env     Environment
	inflate float64
}

// NewValidator returns a validator checking corridors of half-width inflate
// against env.
func NewValidator(env Environment, inflate float64) *Validator {
	return &Validator{env: env, inflate: inflate}
}

// Valid reports whether the edge q-qp is admissible: the separation must lie
// in (0, thresh] and the corridor between the two configurations must be
// clear of obstacles. Symmetric in its vertex arguments.
func (vd *Validator) Valid(q, qp *Vertex, thresh float64) bool {
	d := planar.Distance(q.Coords, qp.Coords)
	if d <= 0 || d > thresh {
		return false
	}
	return !vd.env.SegmentBlocked(q.Coords, qp.Coords, vd.inflate)
}
