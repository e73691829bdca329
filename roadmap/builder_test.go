package roadmap

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEnv is a pluggable Environment for exercising the builder without a
// real workspace. Nil predicates mean fully free space.
type stubEnv struct {
	bounds  orb.Bound
	point   func(p orb.Point) bool
	segment func(a, b orb.Point, inflate float64) bool
}

func (e *stubEnv) PointBlocked(p orb.Point) bool {
	if e.point == nil {
		return false
	}
	return e.point(p)
}

func (e *stubEnv) SegmentBlocked(a, b orb.Point, inflate float64) bool {
	if e.segment == nil {
		return false
	}
	return e.segment(a, b, inflate)
}

func (e *stubEnv) Bounds() orb.Bound {
	return e.bounds
}

func freeEnv() *stubEnv {
	return &stubEnv{bounds: orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 100}}}
}

// roadmapsEqual diffs two snapshots including their unexported adjacency.
func roadmapsEqual(t *testing.T, want, got Roadmap) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(Vertex{})); diff != "" {
		t.Errorf("roadmaps differ (-want +got):\n%s", diff)
	}
}

func TestBuildValidatesParameters(t *testing.T) {
	tests := []struct {
		name   string
		n, k   int
		thresh float64
	}{
		{"zero n", 0, 3, 10},
		{"negative n", -5, 3, 10},
		{"zero k", 10, 0, 10},
		{"negative k", 10, -1, 10},
		{"zero thresh", 10, 3, 0},
		{"negative thresh", 10, 3, -2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(freeEnv(), 0, 1)
			err := b.Build(tt.n, tt.k, tt.thresh)
			require.ErrorIs(t, err, ErrInvalidParameter)
			assert.Empty(t, b.Roadmap())
		})
	}
}

func TestBuildPlacesRequestedVerticesInFreeSpace(t *testing.T) {
	env := freeEnv()
	// Block a disc in the middle of the workspace.
	center := orb.Point{50, 50}
	env.point = func(p orb.Point) bool { return planar.Distance(p, center) < 20 }

	b := New(env, 0, 42)
	require.NoError(t, b.Build(60, 4, 30))

	rm := b.Roadmap()
	require.Len(t, rm, 60)
	bounds := env.Bounds()
	for _, v := range rm {
		assert.False(t, env.PointBlocked(v.Coords), "vertex %d inside obstacle", v.ID)
		assert.True(t, bounds.Contains(v.Coords), "vertex %d out of bounds", v.ID)
		assert.False(t, v.Visited)
	}
}

func TestBuildAssignsDenseInsertionOrderedIDs(t *testing.T) {
	b := New(freeEnv(), 0, 7)
	require.NoError(t, b.Build(25, 3, 40))

	ids := b.Roadmap().IDs()
	require.Len(t, ids, 25)
	for i, id := range ids {
		assert.Equal(t, i, id)
	}
}

func TestBuildEdgeInvariants(t *testing.T) {
	const thresh = 40.0
	b := New(freeEnv(), 0, 11)
	require.NoError(t, b.Build(40, 5, thresh))

	rm := b.Roadmap()
	for _, v := range rm {
		assert.Len(t, v.neighbors, len(v.edges), "vertex %d views out of sync", v.ID)
		for _, e := range v.Edges() {
			assert.NotEqual(t, v.ID, e.To, "vertex %d has a self-loop", v.ID)
			assert.Greater(t, e.Distance, 0.0)
			assert.LessOrEqual(t, e.Distance, thresh)
			assert.InDelta(t, planar.Distance(v.Coords, rm[e.To].Coords), e.Distance, 1e-12)

			// The reverse edge exists and carries the identical distance.
			other := rm[e.To]
			require.True(t, other.EdgeExists(v.ID), "edge %d->%d missing reverse", v.ID, e.To)
			for _, re := range other.Edges() {
				if re.To == v.ID {
					assert.Equal(t, e.Distance, re.Distance)
				}
			}
		}
	}
}

func TestBuildConnectsAtLeastKInOpenSpace(t *testing.T) {
	// With no obstacles and a threshold wider than the workspace diagonal,
	// every vertex keeps all k of its candidates; reverse connections can
	// only push the degree higher.
	b := New(freeEnv(), 0, 3)
	require.NoError(t, b.Build(10, 3, 200))

	rm := b.Roadmap()
	require.Len(t, rm, 10)
	for _, v := range rm {
		assert.GreaterOrEqual(t, v.Degree(), 3, "vertex %d under-connected", v.ID)
	}
}

func TestBuildTinyThresholdIsolatesVertices(t *testing.T) {
	b := New(freeEnv(), 0, 5)
	require.NoError(t, b.Build(20, 3, 1e-12))

	rm := b.Roadmap()
	assert.Len(t, rm, 20)
	assert.Zero(t, rm.EdgeCount())
}

func TestBuildDeterministicAcrossBuilders(t *testing.T) {
	env := freeEnv()
	env.point = func(p orb.Point) bool { return p[0] > 40 && p[0] < 60 }

	b1 := New(env, 1.5, 1234)
	b2 := New(env, 1.5, 1234)
	require.NoError(t, b1.Build(50, 4, 35))
	require.NoError(t, b2.Build(50, 4, 35))

	roadmapsEqual(t, b1.Roadmap(), b2.Roadmap())
}

func TestBuildReseedsOnEveryCall(t *testing.T) {
	b := New(freeEnv(), 0, 77)
	require.NoError(t, b.Build(30, 3, 25))
	first := b.Roadmap()

	require.NoError(t, b.Build(30, 3, 25))
	roadmapsEqual(t, first, b.Roadmap())
}

func TestBuildDifferentSeedsDiffer(t *testing.T) {
	b1 := New(freeEnv(), 0, 1)
	b2 := New(freeEnv(), 0, 2)
	require.NoError(t, b1.Build(10, 2, 30))
	require.NoError(t, b2.Build(10, 2, 30))

	assert.NotEqual(t, b1.Roadmap()[0].Coords, b2.Roadmap()[0].Coords)
}

func TestBuildParallelMatchesSerial(t *testing.T) {
	env := freeEnv()
	env.point = func(p orb.Point) bool { return p[1] > 70 }
	env.segment = func(a, b orb.Point, inflate float64) bool {
		return (a[0] < 50) != (b[0] < 50) // a wall at x=50 with no gaps
	}

	serial := New(env, 0, 2024)
	require.NoError(t, serial.Build(80, 6, 30))

	parallel := New(env, 0, 2024)
	parallel.Workers = 4
	require.NoError(t, parallel.Build(80, 6, 30))

	roadmapsEqual(t, serial.Roadmap(), parallel.Roadmap())
}

func TestBuildChecksCorridorsWithConfiguredInflate(t *testing.T) {
	const inflate = 1.5
	env := freeEnv()
	var radii []float64
	rejected := 0
	env.segment = func(a, b orb.Point, r float64) bool {
		radii = append(radii, r)
		lo, hi := a[0], b[0]
		if lo > hi {
			lo, hi = hi, lo
		}
		// A wall at x=50: blocked as soon as the swept corridor reaches it.
		blocked := lo-r <= 50 && 50 <= hi+r
		if blocked {
			rejected++
		}
		return blocked
	}

	b := New(env, inflate, 321)
	require.NoError(t, b.Build(80, 5, 30))

	// Every corridor check received the radius the builder was created with.
	require.NotEmpty(t, radii, "no corridor ever reached the environment")
	for _, r := range radii {
		require.Equal(t, inflate, r, "corridor checked with the wrong inflation radius")
	}
	assert.Greater(t, rejected, 0, "the wall never rejected a candidate")

	rm := b.Roadmap()
	assert.NotZero(t, rm.EdgeCount())
	for _, id := range rm.IDs() {
		v := rm[id]
		for _, e := range v.Edges() {
			assert.False(t, env.SegmentBlocked(v.Coords, rm[e.To].Coords, inflate),
				"edge %d-%d runs a blocked corridor", v.ID, e.To)
		}
	}
}

// spyFinder wraps another finder and records how many candidates each query
// received.
type spyFinder struct {
	inner NeighborFinder

	mu       sync.Mutex
	calls    map[int]int
	returned map[int]int
}

func newSpyFinder(inner NeighborFinder) *spyFinder {
	return &spyFinder{inner: inner, calls: make(map[int]int), returned: make(map[int]int)}
}

func (f *spyFinder) Reset() { f.inner.Reset() }

func (f *spyFinder) Add(v *Vertex) { f.inner.Add(v) }

func (f *spyFinder) Nearest(q *Vertex, k int) []Neighbor {
	result := f.inner.Nearest(q, k)
	f.mu.Lock()
	f.calls[q.ID]++
	f.returned[q.ID] = len(result)
	f.mu.Unlock()
	return result
}

func TestBuildEvaluatesAtMostKCandidatesPerVertex(t *testing.T) {
	const k = 4
	spy := newSpyFinder(NewBruteForceFinder())
	b := New(freeEnv(), 0, 21)
	b.Finder = spy

	require.NoError(t, b.Build(30, k, 50))

	require.Len(t, spy.calls, 30)
	for id, calls := range spy.calls {
		assert.Equal(t, 1, calls, "vertex %d queried more than once", id)
		assert.LessOrEqual(t, spy.returned[id], k, "vertex %d got more than k candidates", id)
	}
}

func TestBuildWithRTreeFinderMatchesBruteForce(t *testing.T) {
	brute := New(freeEnv(), 0, 314)
	require.NoError(t, brute.Build(60, 5, 30))

	rtree := New(freeEnv(), 0, 314)
	rtree.Finder = NewRTreeFinder()
	require.NoError(t, rtree.Build(60, 5, 30))

	roadmapsEqual(t, brute.Roadmap(), rtree.Roadmap())
}

func TestBuildSamplingExhaustedLeavesBuilderEmpty(t *testing.T) {
	env := freeEnv()
	blockAll := true
	env.point = func(p orb.Point) bool { return blockAll }

	b := New(env, 0, 9)
	err := b.Build(20, 3, 10)
	require.ErrorIs(t, err, ErrSamplingExhausted)
	assert.Empty(t, b.Roadmap())

	// Free the space again: the builder recovers on the next call.
	blockAll = false
	require.NoError(t, b.Build(20, 3, 10))
	assert.Len(t, b.Roadmap(), 20)
}

func TestBuildPartialSamplingIsDiscarded(t *testing.T) {
	// Admit the first five configurations, then pretend the space filled up.
	env := freeEnv()
	admitted := 0
	env.point = func(p orb.Point) bool {
		if admitted < 5 {
			admitted++
			return false
		}
		return true
	}

	b := New(env, 0, 6)
	err := b.Build(50, 3, 10)
	require.ErrorIs(t, err, ErrSamplingExhausted)
	assert.Empty(t, b.Roadmap(), "partially sampled vertices must not leak")
}

func TestRoadmapBeforeBuildIsEmpty(t *testing.T) {
	b := New(freeEnv(), 0, 1)
	assert.Empty(t, b.Roadmap())
}

func TestRoadmapSnapshotsAreIsolated(t *testing.T) {
	b := New(freeEnv(), 0, 55)
	require.NoError(t, b.Build(15, 3, 40))

	reference := b.Roadmap()
	mutated := b.Roadmap()
	require.NotSame(t, reference[0], mutated[0])

	// Vandalize one snapshot: the builder and other snapshots are unmoved.
	mutated[0].Visited = true
	mutated[0].addEdge(9999, 1.0)
	delete(mutated, 1)

	roadmapsEqual(t, reference, b.Roadmap())

	require.NoError(t, b.Build(15, 3, 40))
	roadmapsEqual(t, reference, b.Roadmap())
}

func TestSeedAccessor(t *testing.T) {
	assert.Equal(t, int64(123), New(freeEnv(), 0, 123).Seed())
}
