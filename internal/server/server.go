// Package server exposes the segment inventory over HTTP for the review
// map: list and inspect segments, delete bad ones, back up and restore
// the inventory file, and re-clip a segment on demand.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/clip"
	"github.com/sells-group/roadaudit/internal/geofile"
	"github.com/sells-group/roadaudit/internal/geometry"
	"github.com/sells-group/roadaudit/internal/segment"
)

// Server serves the edit API over one inventory GeoJSON file. File access
// is serialized; the review map is a single-editor tool.
type Server struct {
	path     string
	boundary *geometry.Boundary

	mu  sync.Mutex
	log *zap.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithBoundary enables the re-clip endpoint.
func WithBoundary(b *geometry.Boundary) Option {
	return func(s *Server) { s.boundary = b }
}

// New creates a Server over the inventory file at path.
func New(path string, opts ...Option) *Server {
	s := &Server{path: path, log: zap.L()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         3600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/segments", s.handleList)
		r.Get("/segments/{id}", s.handleGet)
		r.Delete("/segments/{id}", s.handleDelete)
		r.Post("/segments/{id}/reclip", s.handleReclip)
		r.Post("/backup", s.handleBackup)
		r.Post("/undo", s.handleUndo)
	})
	return r
}

type segmentSummary struct {
	ID       string  `json:"segment_id"`
	RoadName string  `json:"road_name"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Status   string  `json:"status"`
	QAFlag   string  `json:"qa_flag,omitempty"`
	RouteKM  float64 `json:"route_km"`
	Points   int     `json:"points"`
}

type segmentDetail struct {
	segmentSummary
	Route [][2]float64 `json:"route"`
}

func summarize(s *segment.Segment) segmentSummary {
	return segmentSummary{
		ID:       s.ID,
		RoadName: s.RoadName,
		From:     s.From,
		To:       s.To,
		Status:   string(s.Status),
		QAFlag:   s.QAFlag,
		RouteKM:  s.RouteKM,
		Points:   len(s.Route),
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	segs, err := geofile.ReadSegments(s.path)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]segmentSummary, 0, len(segs))
	for _, seg := range segs {
		out = append(out, summarize(seg))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, _, err := s.find(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if seg == nil {
		respondError(w, http.StatusNotFound, "segment not found")
		return
	}

	detail := segmentDetail{segmentSummary: summarize(seg)}
	for _, p := range seg.Route {
		detail.Route = append(detail.Route, [2]float64{p.Lng, p.Lat})
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	segs, err := geofile.ReadSegments(s.path)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	kept := segs[:0]
	for _, seg := range segs {
		if seg.ID != id {
			kept = append(kept, seg)
		}
	}
	if len(kept) == len(segs) {
		respondError(w, http.StatusNotFound, "segment not found")
		return
	}
	if err := geofile.WriteSegments(s.path, kept); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	s.log.Info("server: segment deleted", zap.String("segment", id), zap.Int("remaining", len(kept)))
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"deleted":   id,
		"remaining": len(kept),
	})
}

func (s *Server) handleReclip(w http.ResponseWriter, r *http.Request) {
	if s.boundary == nil {
		respondError(w, http.StatusServiceUnavailable, "no boundary loaded")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seg, segs, err := s.find(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if seg == nil {
		respondError(w, http.StatusNotFound, "segment not found")
		return
	}

	before := len(seg.Route)
	clipped, err := clip.Clip(seg.Route, s.boundary)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Clip returns the input unchanged for all-inside and all-outside
	// routes; only an actual trim earns the CLIPPED status.
	if slices.Equal(clipped, seg.Route) {
		respondJSON(w, http.StatusOK, map[string]any{
			"ok":            true,
			"segment_id":    seg.ID,
			"changed":       false,
			"points_before": before,
			"points_after":  len(clipped),
		})
		return
	}

	seg.SetRoute(clipped)
	seg.Status = segment.StatusClipped
	if err := geofile.WriteSegments(s.path, segs); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	s.log.Info("server: segment re-clipped",
		zap.String("segment", seg.ID),
		zap.Int("points_before", before),
		zap.Int("points_after", len(seg.Route)),
	)
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"segment_id":    seg.ID,
		"changed":       true,
		"points_before": before,
		"points_after":  len(seg.Route),
	})
}

func (s *Server) handleBackup(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := copyFile(s.path, s.path+".bak"); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("server: backup created", zap.String("path", s.path+".bak"))
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.path + ".bak"
	if _, err := os.Stat(backup); err != nil {
		respondError(w, http.StatusNotFound, "no backup found")
		return
	}
	if err := os.Rename(backup, s.path); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	segs, err := geofile.ReadSegments(s.path)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("server: backup restored", zap.Int("segments", len(segs)))
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"restored": len(segs),
	})
}

// find loads the inventory and locates one segment. The full slice is
// returned so mutating handlers can write it back.
func (s *Server) find(id string) (*segment.Segment, []*segment.Segment, error) {
	segs, err := geofile.ReadSegments(s.path)
	if err != nil {
		return nil, nil, err
	}
	for _, seg := range segs {
		if seg.ID == id {
			return seg, segs, nil
		}
	}
	return nil, segs, nil
}

func (s *Server) fail(w http.ResponseWriter, code int, err error) {
	s.log.Error("server: request failed", zap.Error(err))
	respondError(w, code, err.Error())
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
