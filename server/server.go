// Package server exposes roadmap construction over HTTP: build on request,
// inspect the current roadmap, and fetch its edges for visualization.
package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"prm-planner/artifact"
	"prm-planner/roadmap"
	"prm-planner/workspace"
)

// Build request defaults, applied to zero-valued fields.
const (
	defaultSamples = 500
	defaultK       = 10

	// defaultThreshFraction of the workspace diagonal is used when a build
	// request does not set its own connection threshold.
	defaultThreshFraction = 0.1
)

// Config adjusts server behavior.
type Config struct {
	// ArtifactPath is where build requests with saveToFile persist the
	// roadmap. Empty disables saving.
	ArtifactPath string
	// Workers is the validation parallelism for build requests that do not
	// set their own.
	Workers int
}

// Server holds the current workspace and the latest built roadmap behind one
// lock. Builds run outside the lock; only the swap of the finished roadmap
// is serialized.
type Server struct {
	log *logrus.Logger
	cfg Config

	mu      sync.RWMutex
	ws      *workspace.Workspace
	current roadmap.Roadmap
	params  *artifact.Params
}

// New returns a server over ws. The roadmap starts empty until a build
// request or LoadArtifact publishes one.
func New(ws *workspace.Workspace, log *logrus.Logger, cfg Config) *Server {
	return &Server{log: log, cfg: cfg, ws: ws}
}

// Router returns the HTTP routes with CORS enabled for all origins.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/buildRoadmap", s.handleBuild).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/roadmap", s.handleRoadmap).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/getRoadmapLines", s.handleLines).Methods(http.MethodGet, http.MethodOptions)
	return r
}

// LoadArtifact publishes a previously saved roadmap, typically at startup.
func (s *Server) LoadArtifact(path string) error {
	file, rm, err := artifact.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = rm
	s.params = &file.Params
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"path":     path,
		"vertices": len(rm),
		"edges":    rm.EdgeCount(),
	}).Info("📂 loaded existing roadmap")
	return nil
}

// ReplaceWorkspace swaps the obstacle set, then rebuilds the roadmap with
// the last build parameters so the published graph never references stale
// obstacles. If the rebuild fails the roadmap is unpublished instead of left
// contradicting the new obstacles; the parameters stay so the next change
// retries. Used by watch mode after obstacle files change.
func (s *Server) ReplaceWorkspace(ws *workspace.Workspace) {
	s.mu.Lock()
	s.ws = ws
	params := s.params
	s.mu.Unlock()

	s.log.WithField("obstacles", ws.NumObstacles()).Info("🔄 workspace replaced")
	if params == nil {
		return
	}
	if err := s.rebuild(*params); err != nil {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		s.log.WithError(err).Error("❌ rebuild after workspace change failed, roadmap unpublished")
	}
}

// rebuild runs one build against the current workspace and publishes the
// result. The build itself runs unlocked; concurrent rebuilds race benignly,
// last one wins.
func (s *Server) rebuild(p artifact.Params) error {
	s.mu.RLock()
	ws := s.ws
	s.mu.RUnlock()

	b := roadmap.New(ws, p.Inflate, p.Seed)
	b.Logger = s.log
	b.Workers = p.Workers
	if err := b.Build(p.N, p.K, p.Thresh); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = b.Roadmap()
	s.params = &p
	s.mu.Unlock()
	return nil
}

type buildRequest struct {
	N          int     `json:"n"`
	K          int     `json:"k"`
	Thresh     float64 `json:"thresh"`
	Inflate    float64 `json:"inflate"`
	Seed       *int64  `json:"seed"`
	Workers    int     `json:"workers"`
	Force      bool    `json:"force"`
	SaveToFile bool    `json:"saveToFile"`
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	s.log.Info("🗺️  build roadmap request received")

	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.WithError(err).Warn("invalid build request body")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "invalid request body",
		})
		return
	}

	s.mu.RLock()
	exists := s.current != nil
	bounds := s.ws.Bounds()
	s.mu.RUnlock()

	if exists && !req.Force {
		s.log.Warn("⚠️  roadmap already exists, set force:true to rebuild")
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"error":   "roadmap already exists",
			"message": "A roadmap is already built. Set 'force: true' to rebuild.",
		})
		return
	}

	if req.N == 0 {
		req.N = defaultSamples
	}
	if req.K == 0 {
		req.K = defaultK
	}
	if req.Thresh == 0 {
		width := bounds.Max[0] - bounds.Min[0]
		height := bounds.Max[1] - bounds.Min[1]
		req.Thresh = math.Hypot(width, height) * defaultThreshFraction
	}
	if req.Workers == 0 {
		req.Workers = s.cfg.Workers
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	params := artifact.Params{
		N:       req.N,
		K:       req.K,
		Thresh:  req.Thresh,
		Inflate: req.Inflate,
		Seed:    seed,
		Workers: req.Workers,
	}

	start := time.Now()
	if err := s.rebuild(params); err != nil {
		s.log.WithError(err).Error("❌ build failed")
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, roadmap.ErrInvalidParameter):
			status = http.StatusBadRequest
		case errors.Is(err, roadmap.ErrSamplingExhausted):
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	elapsed := time.Since(start)

	s.mu.RLock()
	rm := s.current
	s.mu.RUnlock()

	if req.SaveToFile && s.cfg.ArtifactPath != "" {
		if err := artifact.Save(s.cfg.ArtifactPath, rm, bounds, params); err != nil {
			s.log.WithError(err).Warn("⚠️  failed to save roadmap")
		} else {
			s.log.WithField("path", s.cfg.ArtifactPath).Info("💾 roadmap saved")
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"numVertices": len(rm),
		"numEdges":    rm.EdgeCount(),
		"seed":        seed,
		"elapsedMs":   elapsed.Milliseconds(),
		"bounds":      map[string]interface{}{"min": bounds.Min, "max": bounds.Max},
	})
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	rm := s.current
	params := s.params
	bounds := s.ws.Bounds()
	s.mu.RUnlock()

	if rm == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "roadmap not built. Call /buildRoadmap first",
		})
		return
	}

	writeJSON(w, http.StatusOK, artifact.Encode(rm, bounds, *params))
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	rm := s.current
	s.mu.RUnlock()

	if rm == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "roadmap not built. Call /buildRoadmap first",
		})
		return
	}

	lines := rm.Lines()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"lines":    lines,
		"numNodes": len(rm),
		"numEdges": len(lines),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	rm := s.current
	obstacles := s.ws.NumObstacles()
	s.mu.RUnlock()

	status := "ready"
	if rm == nil {
		status = "waiting for roadmap build"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       status,
		"hasRoadmap":   rm != nil,
		"numVertices":  len(rm),
		"numEdges":     rm.EdgeCount(),
		"numObstacles": obstacles,
	})
}

// corsMiddleware allows browser frontends on any origin, answering
// preflights directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
