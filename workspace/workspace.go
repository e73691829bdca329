// Package workspace models the planar region a roadmap is built in: a
// rectangular boundary plus polygonal obstacles indexed in an R-tree for
// fast collision queries.
package workspace

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"prm-planner/geom"
)

const (
	// R-tree node capacity: 2D, min 25, max 50 entries per node.
	treeMinChildren = 25
	treeMaxChildren = 50

	// minRectExtent pads degenerate bounding boxes so zero-area obstacles
	// and point queries still produce valid index rectangles.
	minRectExtent = 1e-9
)

// obstacle wraps one forbidden region for R-tree storage.
type obstacle struct {
	ring orb.Ring
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (o *obstacle) Bounds() rtreego.Rect {
	return o.rect
}

// Config adjusts workspace construction.
type Config struct {
	// SimplifyTolerance is the Douglas-Peucker tolerance applied to obstacle
	// rings before indexing. Zero keeps rings exactly as loaded.
	SimplifyTolerance float64
}

// Workspace is a rectangular region with polygonal obstacles. It is immutable
// after construction and safe for concurrent queries.
type Workspace struct {
	bounds    orb.Bound
	obstacles []*obstacle
	tree      *rtreego.Rtree
}

// New builds a workspace from the outer rings of the given polygons. Holes
// are ignored. Degenerate rings are skipped, and rings fully contained in
// another ring are dropped before indexing.
func New(bounds orb.Bound, polygons []orb.Polygon, cfg Config) *Workspace {
	rings := make([]orb.Ring, 0, len(polygons))
	for _, poly := range polygons {
		if len(poly) == 0 {
			continue
		}
		ring := closeRing(poly[0])
		if cfg.SimplifyTolerance > 0 {
			ring = closeRing(simplify.DouglasPeucker(cfg.SimplifyTolerance).Ring(ring))
		}
		if len(ring) < 4 {
			// Fewer than three distinct corners encloses no area.
			continue
		}
		rings = append(rings, ring)
	}
	rings = dropContainedRings(rings)

	tree := rtreego.NewTree(2, treeMinChildren, treeMaxChildren)
	obstacles := make([]*obstacle, 0, len(rings))
	for _, ring := range rings {
		o := &obstacle{ring: ring, rect: rectForBound(ring.Bound(), 0)}
		obstacles = append(obstacles, o)
		tree.Insert(o)
	}

	return &Workspace{bounds: bounds, obstacles: obstacles, tree: tree}
}

// Bounds returns the rectangular extent configurations are sampled from.
func (w *Workspace) Bounds() orb.Bound {
	return w.bounds
}

// NumObstacles returns the number of indexed obstacles.
func (w *Workspace) NumObstacles() int {
	return len(w.obstacles)
}

// Obstacles returns the rings of all indexed obstacles.
func (w *Workspace) Obstacles() []orb.Ring {
	rings := make([]orb.Ring, len(w.obstacles))
	for i, o := range w.obstacles {
		rings[i] = o.ring
	}
	return rings
}

// PointBlocked reports whether p lies inside any obstacle. Points on an
// obstacle boundary count as blocked.
func (w *Workspace) PointBlocked(p orb.Point) bool {
	query := rectForBound(orb.Bound{Min: p, Max: p}, 0)
	for _, item := range w.tree.SearchIntersect(query) {
		o := item.(*obstacle)
		if planar.RingContains(o.ring, p) {
			return true
		}
	}
	return false
}

// SegmentBlocked reports whether the corridor of half-width inflate around
// the segment a-b touches any obstacle. With inflate zero only the segment
// itself is tested.
func (w *Workspace) SegmentBlocked(a, b orb.Point, inflate float64) bool {
	query := rectForBound(orb.Bound{Min: a, Max: a}.Extend(b), inflate)
	mid := geom.Midpoint(a, b)
	for _, item := range w.tree.SearchIntersect(query) {
		o := item.(*obstacle)
		// Boundary crossing catches partial overlaps, the containment checks
		// catch segments that never cross a boundary because they run
		// entirely inside the obstacle.
		if geom.SegmentIntersectsRing(a, b, o.ring) {
			return true
		}
		if planar.RingContains(o.ring, a) || planar.RingContains(o.ring, b) || planar.RingContains(o.ring, mid) {
			return true
		}
		if inflate > 0 && geom.SegmentRingDistance(a, b, o.ring) <= inflate {
			return true
		}
	}
	return false
}

// closeRing appends the first point if the ring is not explicitly closed.
func closeRing(ring orb.Ring) orb.Ring {
	if len(ring) < 3 {
		return ring
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// dropContainedRings removes rings fully contained within another ring. They
// cost index entries without changing the blocked region.
func dropContainedRings(rings []orb.Ring) []orb.Ring {
	if len(rings) <= 1 {
		return rings
	}

	contained := make([]bool, len(rings))
	for i := range rings {
		if contained[i] {
			continue
		}
		for j := range rings {
			if i == j || contained[j] {
				continue
			}
			if ringContainedIn(rings[i], rings[j]) {
				contained[i] = true
				break
			}
			if ringContainedIn(rings[j], rings[i]) {
				contained[j] = true
			}
		}
	}

	result := make([]orb.Ring, 0, len(rings))
	for i, ring := range rings {
		if !contained[i] {
			result = append(result, ring)
		}
	}
	return result
}

// ringContainedIn checks if every vertex of a lies inside b, with a bounding
// box rejection first.
func ringContainedIn(a, b orb.Ring) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	bb := b.Bound()
	ab := a.Bound()
	if !bb.Contains(ab.Min) || !bb.Contains(ab.Max) {
		return false
	}
	for _, p := range a {
		if !planar.RingContains(b, p) {
			return false
		}
	}
	return true
}

// rectForBound converts b to an R-tree rectangle grown by pad on every side.
// Extents are clamped to a small positive minimum because rtreego rejects
// zero-length rectangles.
func rectForBound(b orb.Bound, pad float64) rtreego.Rect {
	lengths := []float64{
		math.Max(b.Max[0]-b.Min[0]+2*pad, minRectExtent),
		math.Max(b.Max[1]-b.Min[1]+2*pad, minRectExtent),
	}
	rect, err := rtreego.NewRect(rtreego.Point{b.Min[0] - pad, b.Min[1] - pad}, lengths)
	if err != nil {
		panic(err) // unreachable, lengths are always positive
	}
	return rect
}
