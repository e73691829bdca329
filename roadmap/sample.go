package roadmap

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

// sampleAttemptFactor bounds rejection sampling: a build draws at most
// n*sampleAttemptFactor candidates before giving up.
const sampleAttemptFactor = 10

// sampleConfigurations fills the store with n collision-free configurations
// drawn uniformly over the environment bounds, registering each accepted
// vertex with the neighbor finder. Returns ErrSamplingExhausted when the
// attempt budget runs out first.
func (b *Builder) sampleConfigurations(n int) error {
	bounds := b.env.Bounds()
	width := bounds.Max[0] - bounds.Min[0]
	height := bounds.Max[1] - bounds.Min[1]

	attempts := 0
	maxAttempts := n * sampleAttemptFactor

	for b.store.len() < n && attempts < maxAttempts {
		attempts++
		p := orb.Point{
			bounds.Min[0] + b.rng.Float64()*width,
			bounds.Min[1] + b.rng.Float64()*height,
		}
		if b.env.PointBlocked(p) {
			continue
		}
		v := b.store.insert(p)
		b.Finder.Add(v)
	}

	if b.store.len() < n {
		return fmt.Errorf("%w: placed %d of %d after %d attempts",
			ErrSamplingExhausted, b.store.len(), n, attempts)
	}

	b.Logger.WithFields(logrus.Fields{
		"vertices": b.store.len(),
		"attempts": attempts,
	}).Debug("sampling complete")
	return nil
}
