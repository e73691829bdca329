package roadmap

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addAll(f NeighborFinder, vertices []*Vertex) {
	for _, v := range vertices {
		f.Add(v)
	}
}

func TestBruteForceOrdering(t *testing.T) {
	vertices := []*Vertex{
		newVertex(0, orb.Point{0, 0}),
		newVertex(1, orb.Point{10, 0}),
		newVertex(2, orb.Point{3, 0}),
		newVertex(3, orb.Point{0, 1}),
		newVertex(4, orb.Point{7, 7}),
	}
	f := NewBruteForceFinder()
	addAll(f, vertices)

	got := f.Nearest(vertices[0], 3)

	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 2, 4}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.InDelta(t, 1.0, got[0].Distance, 1e-12)
	assert.InDelta(t, 3.0, got[1].Distance, 1e-12)
}

func TestBruteForceTieBreaksOnSmallerID(t *testing.T) {
	// Both candidates sit exactly five units from the query.
	vertices := []*Vertex{
		newVertex(0, orb.Point{0, 0}),
		newVertex(7, orb.Point{4, 3}),
		newVertex(3, orb.Point{3, 4}),
	}
	f := NewBruteForceFinder()
	addAll(f, vertices)

	got := f.Nearest(vertices[0], 1)

	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
}

func TestBruteForceExcludesQueryVertex(t *testing.T) {
	vertices := []*Vertex{
		newVertex(0, orb.Point{0, 0}),
		newVertex(1, orb.Point{1, 0}),
	}
	f := NewBruteForceFinder()
	addAll(f, vertices)

	got := f.Nearest(vertices[0], 10)

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestBruteForceShortResults(t *testing.T) {
	f := NewBruteForceFinder()

	assert.Empty(t, f.Nearest(newVertex(0, orb.Point{0, 0}), 5))

	addAll(f, []*Vertex{
		newVertex(0, orb.Point{0, 0}),
		newVertex(1, orb.Point{1, 0}),
		newVertex(2, orb.Point{2, 0}),
	})
	assert.Len(t, f.Nearest(newVertex(0, orb.Point{0, 0}), 10), 2)
	assert.Nil(t, f.Nearest(newVertex(0, orb.Point{0, 0}), 0))
}

func TestBruteForceReset(t *testing.T) {
	f := NewBruteForceFinder()
	addAll(f, []*Vertex{newVertex(0, orb.Point{0, 0}), newVertex(1, orb.Point{1, 0})})

	f.Reset()
	assert.Empty(t, f.Nearest(newVertex(5, orb.Point{0, 0}), 3))

	f.Add(newVertex(2, orb.Point{2, 2}))
	assert.Len(t, f.Nearest(newVertex(5, orb.Point{0, 0}), 3), 1)
}

func TestRTreeMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	vertices := make([]*Vertex, 80)
	for i := range vertices {
		vertices[i] = newVertex(i, orb.Point{rng.Float64() * 100, rng.Float64() * 100})
	}

	bf := NewBruteForceFinder()
	rt := NewRTreeFinder()
	addAll(bf, vertices)
	addAll(rt, vertices)

	for _, k := range []int{1, 3, 8} {
		for _, q := range vertices[:10] {
			assert.Equal(t, bf.Nearest(q, k), rt.Nearest(q, k), "k=%d query=%d", k, q.ID)
		}
	}
}

func TestRTreeOrdersExactTiesWithinResults(t *testing.T) {
	// Both candidates sit exactly five units from the query. With room for
	// both in the result the smaller id comes first, same as brute force.
	vertices := []*Vertex{
		newVertex(0, orb.Point{0, 0}),
		newVertex(7, orb.Point{4, 3}),
		newVertex(3, orb.Point{3, 4}),
	}
	f := NewRTreeFinder()
	addAll(f, vertices)

	got := f.Nearest(vertices[0], 2)

	require.Len(t, got, 2)
	assert.Equal(t, []int{3, 7}, []int{got[0].ID, got[1].ID})
}

func TestRTreeExcludesQueryVertex(t *testing.T) {
	f := NewRTreeFinder()
	addAll(f, []*Vertex{
		newVertex(0, orb.Point{0, 0}),
		newVertex(1, orb.Point{1, 0}),
		newVertex(2, orb.Point{5, 5}),
	})

	got := f.Nearest(newVertex(0, orb.Point{0, 0}), 5)

	require.Len(t, got, 2)
	for _, n := range got {
		assert.NotEqual(t, 0, n.ID)
	}
}

func TestRTreeReset(t *testing.T) {
	f := NewRTreeFinder()
	addAll(f, []*Vertex{newVertex(0, orb.Point{0, 0}), newVertex(1, orb.Point{1, 0})})

	f.Reset()
	assert.Empty(t, f.Nearest(newVertex(9, orb.Point{0, 0}), 3))

	f.Add(newVertex(2, orb.Point{2, 2}))
	assert.Len(t, f.Nearest(newVertex(9, orb.Point{0, 0}), 3), 1)
}
