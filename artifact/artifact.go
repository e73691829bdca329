// Package artifact persists built roadmaps as JSON so services can reload a
// previous build instead of recomputing it at startup.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"

	"prm-planner/roadmap"
)

// Version is written into every file and checked on load.
const Version = 1

// Params records the build inputs that produced a roadmap. Together with the
// obstacle set they are enough to reproduce it exactly.
type Params struct {
	N       int     `json:"n"`
	K       int     `json:"k"`
	Thresh  float64 `json:"thresh"`
	Inflate float64 `json:"inflate"`
	Seed    int64   `json:"seed"`
	Workers int     `json:"workers,omitempty"`
}

// VertexRecord is the serialized form of one vertex.
type VertexRecord struct {
	ID     int            `json:"id"`
	Coords orb.Point      `json:"coords"`
	Edges  []roadmap.Edge `json:"edges"`
}

// File is the on-disk layout of a saved roadmap.
type File struct {
	Version  int            `json:"version"`
	Params   Params         `json:"params"`
	Bounds   orb.Bound      `json:"bounds"`
	Vertices []VertexRecord `json:"vertices"`
}

// Encode converts a snapshot into its serializable form, vertices ordered by
// ascending id.
func Encode(rm roadmap.Roadmap, bounds orb.Bound, params Params) *File {
	file := &File{
		Version:  Version,
		Params:   params,
		Bounds:   bounds,
		Vertices: make([]VertexRecord, 0, len(rm)),
	}
	for _, id := range rm.IDs() {
		v := rm[id]
		edges := v.Edges()
		if edges == nil {
			edges = []roadmap.Edge{}
		}
		file.Vertices = append(file.Vertices, VertexRecord{ID: v.ID, Coords: v.Coords, Edges: edges})
	}
	return file
}

// Decode validates the file and rebuilds the roadmap snapshot it describes.
func Decode(file *File) (roadmap.Roadmap, error) {
	if file.Version != Version {
		return nil, fmt.Errorf("unsupported roadmap file version %d", file.Version)
	}

	ids := make(map[int]struct{}, len(file.Vertices))
	for _, rec := range file.Vertices {
		if rec.ID < 0 {
			return nil, fmt.Errorf("invalid vertex id %d", rec.ID)
		}
		if _, dup := ids[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate vertex id %d", rec.ID)
		}
		ids[rec.ID] = struct{}{}
	}

	adjacency := make(map[int]map[int]float64, len(file.Vertices))
	for _, rec := range file.Vertices {
		edges := make(map[int]float64, len(rec.Edges))
		for _, e := range rec.Edges {
			if e.To == rec.ID {
				return nil, fmt.Errorf("vertex %d has a self-loop", rec.ID)
			}
			if _, ok := ids[e.To]; !ok {
				return nil, fmt.Errorf("vertex %d references missing vertex %d", rec.ID, e.To)
			}
			if _, dup := edges[e.To]; !dup {
				edges[e.To] = e.Distance
			}
		}
		adjacency[rec.ID] = edges
	}

	// Edges are symmetric: the reverse direction must exist and carry the
	// identical distance. Distances round-trip JSON exactly, so a file written
	// by Save always passes.
	for id, edges := range adjacency {
		for to, dist := range edges {
			back, ok := adjacency[to][id]
			if !ok {
				return nil, fmt.Errorf("vertex %d connects to %d without a reverse edge", id, to)
			}
			if back != dist {
				return nil, fmt.Errorf("vertices %d and %d disagree on their edge distance", id, to)
			}
		}
	}

	rm := make(roadmap.Roadmap, len(file.Vertices))
	for _, rec := range file.Vertices {
		rm[rec.ID] = roadmap.RestoreVertex(rec.ID, rec.Coords, rec.Edges)
	}
	return rm, nil
}

// Save writes the roadmap and its provenance to path as indented JSON.
func Save(path string, rm roadmap.Roadmap, bounds orb.Bound, params Params) error {
	data, err := json.MarshalIndent(Encode(rm, bounds, params), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal roadmap: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Load reads a roadmap file written by Save.
func Load(path string) (*File, roadmap.Roadmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal roadmap: %w", err)
	}

	rm, err := Decode(&file)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid roadmap file %s: %w", path, err)
	}
	return &file, rm, nil
}
