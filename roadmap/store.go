package roadmap

import "github.com/paulmach/orb"

// store owns the vertices of the build in progress. Ids are dense and handed
// out in insertion order, so iterating order replays the sampling sequence.
type store struct {
	vertices map[int]*Vertex
	order    []int
	nextID   int
}

func newStore() *store {
	return &store{vertices: make(map[int]*Vertex)}
}

func (s *store) reset() {
	s.vertices = make(map[int]*Vertex)
	s.order = s.order[:0]
	s.nextID = 0
}

func (s *store) insert(coords orb.Point) *Vertex {
	v := newVertex(s.nextID, coords)
	s.vertices[v.ID] = v
	s.order = append(s.order, v.ID)
	s.nextID++
	return v
}

func (s *store) get(id int) *Vertex {
	return s.vertices[id]
}

func (s *store) len() int {
	return len(s.vertices)
}

// snapshot deep-copies every vertex into a detached Roadmap.
func (s *store) snapshot() Roadmap {
	m := make(Roadmap, len(s.vertices))
	for id, v := range s.vertices {
		m[id] = v.clone()
	}
	return m
}
