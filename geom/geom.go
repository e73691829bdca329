// Package geom provides the planar predicates used for collision checking:
// segment intersection tests and point-to-segment distances over orb types.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b orb.Point) orb.Point {
	return orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// SegmentsIntersect checks if the segments p1-p2 and p3-p4 intersect.
// Touching endpoints and collinear overlaps count as intersections.
func SegmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 orb.Point) float64 {
	return (p3[0]-p1[0])*(p2[1]-p1[1]) - (p2[0]-p1[0])*(p3[1]-p1[1])
}

// onSegment checks if point q lies on segment pr
func onSegment(p, r, q orb.Point) bool {
	return q[0] <= math.Max(p[0], r[0]) && q[0] >= math.Min(p[0], r[0]) &&
		q[1] <= math.Max(p[1], r[1]) && q[1] >= math.Min(p[1], r[1])
}

// SegmentDistance returns the minimum distance between the segments a1-a2 and
// b1-b2. Intersecting segments are at distance zero.
func SegmentDistance(a1, a2, b1, b2 orb.Point) float64 {
	if SegmentsIntersect(a1, a2, b1, b2) {
		return 0
	}
	segA := orb.LineString{a1, a2}
	segB := orb.LineString{b1, b2}
	d := planar.DistanceFrom(segA, b1)
	if dd := planar.DistanceFrom(segA, b2); dd < d {
		d = dd
	}
	if dd := planar.DistanceFrom(segB, a1); dd < d {
		d = dd
	}
	if dd := planar.DistanceFrom(segB, a2); dd < d {
		d = dd
	}
	return d
}

// SegmentIntersectsRing checks if the segment a-b crosses any edge of the ring.
func SegmentIntersectsRing(a, b orb.Point, ring orb.Ring) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		if SegmentsIntersect(a, b, ring[i], ring[(i+1)%n]) {
			return true
		}
	}
	return false
}

// SegmentRingDistance returns the minimum distance between the segment a-b and
// the boundary of the ring. Zero if the segment touches or crosses it.
func SegmentRingDistance(a, b orb.Point, ring orb.Ring) float64 {
	n := len(ring)
	min := math.Inf(1)
	for i := 0; i < n; i++ {
		d := SegmentDistance(a, b, ring[i], ring[(i+1)%n])
		if d < min {
			min = d
		}
		if min == 0 {
			break
		}
	}
	return min
}
