package roadmap

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Neighbor is one nearest-neighbor candidate.
type Neighbor struct {
	ID       int
	Distance float64
}

// NeighborFinder indexes the vertices sampled so far and answers nearest-k
// queries during the connection pass. Results are ordered by ascending
// distance with ties broken by smaller id, and never include the query
// vertex itself. Add is only called between Reset and the first Nearest;
// Nearest may then be called from multiple goroutines.
type NeighborFinder interface {
	// Reset drops all indexed vertices.
	Reset()
	// Add indexes a newly sampled vertex.
	Add(v *Vertex)
	// Nearest returns up to k neighbors of q.
	Nearest(q *Vertex, k int) []Neighbor
}

// BruteForceFinder scans every indexed vertex on each query. Linear per
// query, exact, and the reference the finder contract is defined against.
type BruteForceFinder struct {
	vertices []*Vertex
}

// NewBruteForceFinder returns an empty brute-force index.
func NewBruteForceFinder() *BruteForceFinder {
	return &BruteForceFinder{}
}

// Reset implements NeighborFinder.
func (f *BruteForceFinder) Reset() {
	f.vertices = f.vertices[:0]
}

// Add implements NeighborFinder.
func (f *BruteForceFinder) Add(v *Vertex) {
	f.vertices = append(f.vertices, v)
}

// Nearest implements NeighborFinder.
func (f *BruteForceFinder) Nearest(q *Vertex, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	candidates := make([]Neighbor, 0, len(f.vertices))
	for _, v := range f.vertices {
		if v.ID == q.ID {
			continue
		}
		candidates = append(candidates, Neighbor{ID: v.ID, Distance: planar.Distance(q.Coords, v.Coords)})
	}
	sortNeighbors(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50

	// pointExtent gives point entries the positive footprint rtreego
	// requires of its rectangles.
	pointExtent = 1e-9
)

// vertexEntry adapts a vertex to rtreego's Spatial interface.
type vertexEntry struct {
	id     int
	coords orb.Point
	rect   rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *vertexEntry) Bounds() rtreego.Rect {
	return e.rect
}

// RTreeFinder serves nearest-k queries from an R-tree. Drop-in replacement
// for BruteForceFinder that trades exhaustive scans for tree descent on
// larger roadmaps. Candidates that make the cut come back in the same
// (distance, id) order as the brute force; an exact distance tie at the k-th
// place, though, resolves by tree traversal order rather than smaller id, so
// the two finders can keep different members of the tied set.
type RTreeFinder struct {
	tree *rtreego.Rtree
}

// NewRTreeFinder returns an empty R-tree index.
func NewRTreeFinder() *RTreeFinder {
	return &RTreeFinder{tree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)}
}

// Reset implements NeighborFinder.
func (f *RTreeFinder) Reset() {
	f.tree = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
}

// Add implements NeighborFinder.
func (f *RTreeFinder) Add(v *Vertex) {
	f.tree.Insert(&vertexEntry{
		id:     v.ID,
		coords: v.Coords,
		rect:   rtreego.Point{v.Coords[0], v.Coords[1]}.ToRect(pointExtent),
	})
}

// Nearest implements NeighborFinder.
func (f *RTreeFinder) Nearest(q *Vertex, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	// Ask for one extra because the query vertex indexes itself too.
	found := f.tree.NearestNeighbors(k+1, rtreego.Point{q.Coords[0], q.Coords[1]})
	neighbors := make([]Neighbor, 0, k)
	for _, item := range found {
		entry, ok := item.(*vertexEntry)
		if !ok || entry.id == q.ID {
			continue
		}
		neighbors = append(neighbors, Neighbor{ID: entry.id, Distance: planar.Distance(q.Coords, entry.coords)})
	}
	sortNeighbors(neighbors)
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}

// sortNeighbors orders by ascending distance, then by smaller id, so equal
// distances resolve the same way on every run.
func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].ID < ns[j].ID
	})
}
