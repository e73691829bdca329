package roadmap

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Builder constructs roadmaps over an Environment. A Builder is not safe for
// concurrent use; guard it externally when builds and snapshot reads can
// race.
type Builder struct {
	// Finder supplies nearest-neighbor candidates during the connection
	// pass. Swap it before Build to change the index; the default is a
	// BruteForceFinder.
	Finder NeighborFinder

	// Workers caps the goroutines validating candidate edges. Edge commits
	// stay ordered regardless, so any value produces the same roadmap.
	// Values below one run single-threaded.
	Workers int

	// Logger receives build progress. Discards output unless replaced.
	Logger *logrus.Logger

	env       Environment
	validator *Validator
	seed      int64
	rng       *rand.Rand
	store     *store
	ready     bool
}

// New returns a Builder over env. inflate is the robot footprint radius
// applied to every edge corridor check, and seed fixes the sampling stream
// so identical parameters rebuild identical roadmaps.
func New(env Environment, inflate float64, seed int64) *Builder {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Builder{
		Finder:    NewBruteForceFinder(),
		Workers:   1,
		Logger:    logger,
		env:       env,
		validator: NewValidator(env, inflate),
		seed:      seed,
		store:     newStore(),
	}
}

// Build samples n collision-free configurations and connects each to its k
// nearest neighbors wherever the joining corridor is clear and no longer
// than thresh. Edges are committed symmetrically, so both endpoints always
// agree on the connection and its length.
//
// On any error the builder is left empty: Roadmap returns no vertices until
// a later Build succeeds. The random stream restarts from the builder's seed
// on every call, so calling Build twice with the same parameters yields the
// same roadmap.
func (b *Builder) Build(n, k int, thresh float64) error {
	if n <= 0 {
		return fmt.Errorf("%w: n must be positive, got %d", ErrInvalidParameter, n)
	}
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidParameter, k)
	}
	if thresh <= 0 {
		return fmt.Errorf("%w: thresh must be positive, got %g", ErrInvalidParameter, thresh)
	}

	start := time.Now()
	b.ready = false
	b.store.reset()
	b.Finder.Reset()
	b.rng = rand.New(rand.NewSource(b.seed))

	b.Logger.WithFields(logrus.Fields{
		"n": n, "k": k, "thresh": thresh, "seed": b.seed,
	}).Info("🗺️  building roadmap")

	if err := b.sampleConfigurations(n); err != nil {
		b.store.reset()
		b.Finder.Reset()
		return err
	}

	edges, err := b.connect(k, thresh)
	if err != nil {
		b.store.reset()
		b.Finder.Reset()
		return err
	}
	b.ready = true

	b.Logger.WithFields(logrus.Fields{
		"vertices": b.store.len(),
		"edges":    edges,
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("✅ roadmap built")
	return nil
}

// connect runs the connection pass. Candidate selection and corridor
// validation are read-only, so they fan out across Workers goroutines;
// commits happen afterwards on the calling goroutine in insertion order.
// That split keeps repeated builds byte-for-byte identical while the
// expensive collision checks run in parallel.
func (b *Builder) connect(k int, thresh float64) (int, error) {
	order := b.store.order
	accepted := make([][]Neighbor, len(order))

	workers := b.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	indexes := make(chan int)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range indexes {
				q := b.store.get(order[i])
				var keep []Neighbor
				for _, c := range b.Finder.Nearest(q, k) {
					if b.validator.Valid(q, b.store.get(c.ID), thresh) {
						keep = append(keep, c)
					}
				}
				accepted[i] = keep
			}
			return nil
		})
	}
	for i := range order {
		indexes <- i
	}
	close(indexes)
	if err := g.Wait(); err != nil {
		return 0, err
	}

	edges := 0
	for i, id := range order {
		q := b.store.get(id)
		for _, c := range accepted[i] {
			if q.EdgeExists(c.ID) {
				continue
			}
			qp := b.store.get(c.ID)
			q.addEdge(qp.ID, c.Distance)
			qp.addEdge(q.ID, c.Distance)
			edges++
		}
	}

	b.Logger.WithFields(logrus.Fields{"edges": edges}).Debug("connection pass complete")
	return edges, nil
}

// Roadmap returns a snapshot of the last successful build, or an empty map
// when there is none. Every call deep-copies, so callers may mutate the
// result freely and two calls never share vertices.
func (b *Builder) Roadmap() Roadmap {
	if !b.ready {
		return Roadmap{}
	}
	return b.store.snapshot()
}

// Seed returns the seed the sampling stream restarts from on each Build.
func (b *Builder) Seed() int64 {
	return b.seed
}
