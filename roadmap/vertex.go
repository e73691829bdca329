package roadmap

import "github.com/paulmach/orb"

// Edge is one accepted connection out of a vertex.
type Edge struct {
	To       int     `json:"to"`
	Distance float64 `json:"distance"`
}

// Vertex is one collision-free configuration in a roadmap. Its edge list and
// neighbor set are two views over the same adjacency relation and are only
// ever mutated together, so they cannot drift apart.
type Vertex struct {
	ID     int
	Coords orb.Point

	// Visited is scratch state for traversals over a snapshot. Builds always
	// produce it false.
	Visited bool

	edges     []Edge
	neighbors map[int]struct{}
}

func newVertex(id int, coords orb.Point) *Vertex {
	return &Vertex{
		ID:        id,
		Coords:    coords,
		neighbors: make(map[int]struct{}),
	}
}

// RestoreVertex rebuilds a vertex from persisted fields, deriving the
// neighbor set from the edge list. Callers must pass non-negative ids only;
// loaders are expected to validate before restoring.
func RestoreVertex(id int, coords orb.Point, edges []Edge) *Vertex {
	v := newVertex(id, coords)
	for _, e := range edges {
		v.addEdge(e.To, e.Distance)
	}
	return v
}

// EdgeExists reports whether v already connects to the vertex with the given
// id. Constant time regardless of degree.
func (v *Vertex) EdgeExists(id int) bool {
	_, ok := v.neighbors[id]
	return ok
}

// Edges returns v's connections in the order they were committed. The slice
// is shared; callers must not modify it.
func (v *Vertex) Edges() []Edge {
	return v.edges
}

// Degree returns the number of connections.
func (v *Vertex) Degree() int {
	return len(v.edges)
}

// addEdge is the only mutation path for the edge list and the neighbor set,
// which keeps the two views in lockstep. Duplicates are ignored.
func (v *Vertex) addEdge(to int, distance float64) {
	if to < 0 {
		panic("roadmap: edge to unassigned vertex id")
	}
	if v.EdgeExists(to) {
		return
	}
	v.edges = append(v.edges, Edge{To: to, Distance: distance})
	v.neighbors[to] = struct{}{}
}

// clone deep-copies v so snapshots stay detached from the builder.
func (v *Vertex) clone() *Vertex {
	c := &Vertex{
		ID:        v.ID,
		Coords:    v.Coords,
		Visited:   v.Visited,
		edges:     append([]Edge(nil), v.edges...),
		neighbors: make(map[int]struct{}, len(v.neighbors)),
	}
	for id := range v.neighbors {
		c.neighbors[id] = struct{}{}
	}
	return c
}
