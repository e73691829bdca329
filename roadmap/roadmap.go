// Package roadmap builds probabilistic roadmaps: collision-free
// configurations sampled from a workspace and connected to their nearest
// neighbors wherever the joining corridor is clear. The construction is
// seeded, so identical parameters over an identical workspace rebuild an
// identical roadmap.
package roadmap

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Environment answers the collision queries a build needs. Implementations
// must be pure and safe for concurrent readers; workspace.Workspace satisfies
// the interface.
type Environment interface {
	// PointBlocked reports whether a configuration lies inside an obstacle.
	PointBlocked(p orb.Point) bool
	// SegmentBlocked reports whether the corridor of half-width inflate
	// between two configurations touches an obstacle.
	SegmentBlocked(a, b orb.Point, inflate float64) bool
	// Bounds returns the rectangular region configurations are drawn from.
	Bounds() orb.Bound
}

// Roadmap is a snapshot of a built graph keyed by vertex id. It is detached
// from the builder that produced it: callers may mutate vertices or drop
// entries without affecting later builds or other snapshots.
type Roadmap map[int]*Vertex

// IDs returns every vertex id in ascending order.
func (r Roadmap) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// EdgeCount returns the number of undirected edges. Every connection is
// stored on both endpoints, so this is half the summed degree.
func (r Roadmap) EdgeCount() int {
	total := 0
	for _, v := range r {
		total += v.Degree()
	}
	return total / 2
}

// Lines returns each undirected edge once as an endpoint pair, ordered by
// (smaller id, larger id), for visualization.
func (r Roadmap) Lines() [][2]orb.Point {
	lines := make([][2]orb.Point, 0, r.EdgeCount())
	for _, id := range r.IDs() {
		v := r[id]
		for _, e := range v.Edges() {
			// Edges are symmetric; emitting only the low-to-high direction
			// covers each pair exactly once.
			if v.ID < e.To {
				lines = append(lines, [2]orb.Point{v.Coords, r[e.To].Coords})
			}
		}
	}
	return lines
}

// NearestVertex returns the id of the vertex closest to p and its distance.
// The lowest id wins ties. Returns -1 and +Inf on an empty roadmap.
func (r Roadmap) NearestVertex(p orb.Point) (int, float64) {
	nearest := -1
	best := math.Inf(1)
	for _, id := range r.IDs() {
		if d := planar.Distance(p, r[id].Coords); d < best {
			nearest = id
			best = d
		}
	}
	return nearest, best
}
